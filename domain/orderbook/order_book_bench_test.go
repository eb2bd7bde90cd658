package orderbook

import "testing"

func genOrders(b *Book, side Side, startID OrderID, count int, price Price) {
	for i := 0; i < count; i++ {
		_ = b.PlaceLimit(side, startID+OrderID(i), price, 1)
	}
}

func genOrdersSpread(b *Book, side Side, startID OrderID, count int, lo, hi Price) {
	span := hi - lo
	for i := 0; i < count; i++ {
		_ = b.PlaceLimit(side, startID+OrderID(i), lo+Price(i)%span, 1)
	}
}

func BenchmarkLimitInsertSinglePrice(b *testing.B) {
	book := New()
	b.ResetTimer()
	genOrders(book, Bid, 0, b.N, 100)
}

func BenchmarkLimitInsertSpread(b *testing.B) {
	book := New()
	b.ResetTimer()
	genOrdersSpread(book, Bid, 0, b.N, 100, 164)
}

func BenchmarkCancel(b *testing.B) {
	book := New()
	for i := 0; i < b.N; i++ {
		_ = book.PlaceLimit(Bid, OrderID(i), 100+Price(i%64), 1000)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = book.Cancel(OrderID(i))
	}
}

func BenchmarkMarketSweepWarmBook(b *testing.B) {
	warm := New()
	genOrders(warm, Ask, 0, 100_000, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		book := warm.Clone()
		b.StartTimer()
		_, _ = book.ExecuteMarket(Bid, 10_000)
	}
}

func BenchmarkMixedPlaceCancel(b *testing.B) {
	book := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = book.PlaceLimit(Bid, OrderID(i), 100+Price(i%16), 1000)
		if i%2 == 0 {
			_ = book.Cancel(OrderID(i))
		}
	}
}

func BenchmarkDepthSnapshot(b *testing.B) {
	book := New()
	for i := 0; i < 50_000; i++ {
		if i%2 == 0 {
			_ = book.PlaceLimit(Bid, OrderID(i), 99-Price(i%32), 1000)
		} else {
			_ = book.PlaceLimit(Ask, OrderID(i), 101+Price(i%32), 1000)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if len(book.Depth(Bid, 10)) == 0 {
			b.Fatal("empty depth")
		}
	}
}
