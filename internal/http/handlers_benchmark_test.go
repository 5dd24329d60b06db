package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func BenchmarkHandleAddLike(b *testing.B) {
	srv := buildMemoryServer(b, testConfig())
	film := seedFilm(b, srv, "Benchmark Film", 2020)
	users := make([]int64, b.N)
	for i := range users {
		users[i] = seedUser(b, srv, "bench"+strconv.Itoa(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPut, likePath(film, users[i]), nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkHandleListFilms(b *testing.B) {
	srv := buildMemoryServer(b, testConfig())
	user := seedUser(b, srv, "bench")
	for i := 0; i < 200; i++ {
		film := seedFilm(b, srv, "Film "+strconv.Itoa(i), 1990+i%30, int64(1+i%6))
		if i%3 == 0 {
			if err := srv.svc.Signals.AddLike(context.Background(), film, user); err != nil {
				b.Fatalf("like: %v", err)
			}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/films", nil))
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
