package core

import (
	"fmt"
	"testing"
)

// discardConn swallows writes so the benchmark measures fan-out, not
// line accumulation.
type discardConn struct{}

func (discardConn) WriteLine(string) error { return nil }
func (discardConn) Close() error           { return nil }
func (discardConn) RemoteAddr() string     { return "bench:0" }

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	reg := newTestRegistry()
	rt := NewRouter(reg, testLogger())

	if err := reg.Register("sender", discardConn{}); err != nil {
		b.Fatalf("register sender: %v", err)
	}
	for i := 0; i < recipients; i++ {
		if err := reg.Register(fmt.Sprintf("client-%d", i), discardConn{}); err != nil {
			b.Fatalf("register recipient: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := rt.DeliverToRoom("midgard", "payload", DeliverOpts{From: "sender", Exclude: "sender"}); err != nil {
			b.Fatalf("deliver: %v", err)
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
