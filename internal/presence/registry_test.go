package presence

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func TestConnectAndLookup(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	reg.Connect("alice", "c1")
	reg.Connect("alice", "c2")
	reg.Connect("bob", "c3")

	got := sorted(reg.ConnectionsFor("alice"))
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Errorf("ConnectionsFor(alice): got %v, want [c1 c2]", got)
	}
	if !reg.Online("bob") {
		t.Error("Online(bob): got false, want true")
	}
}

func TestConnectIdempotent(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	reg.Connect("alice", "c1")
	reg.Connect("alice", "c1")

	if got := reg.ConnectionsFor("alice"); len(got) != 1 {
		t.Errorf("ConnectionsFor(alice): got %v, want exactly one connection", got)
	}
}

func TestDisconnectRemovesEmptyEntry(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	reg.Connect("alice", "c1")
	reg.Connect("alice", "c2")

	userID, ok := reg.Disconnect("c1")
	if !ok || userID != "alice" {
		t.Fatalf("Disconnect(c1): got (%q, %v), want (alice, true)", userID, ok)
	}
	if !reg.Online("alice") {
		t.Error("alice should still be online with one connection left")
	}

	reg.Disconnect("c2")
	if reg.Online("alice") {
		t.Error("alice entry should be gone once the last connection drops")
	}
	if got := reg.ConnectionsFor("alice"); len(got) != 0 {
		t.Errorf("ConnectionsFor(alice): got %v, want empty", got)
	}
}

func TestDisconnectUnknownConnection(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	reg.Connect("alice", "c1")
	if _, ok := reg.Disconnect("nope"); ok {
		t.Error("Disconnect(nope): got true, want false")
	}
	if got := reg.ConnectionsFor("alice"); len(got) != 1 {
		t.Errorf("unrelated disconnect must not touch alice: got %v", got)
	}
}

func TestAllConnections(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	reg.Connect("alice", "c1")
	reg.Connect("alice", "c2")
	reg.Connect("bob", "c3")

	got := sorted(reg.AllConnections())
	want := []string{"c1", "c2", "c3"}
	if len(got) != len(want) {
		t.Fatalf("AllConnections: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllConnections[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

// The live set after any interleaving of connects and disconnects must
// equal exactly the connections not yet dropped.
func TestConcurrentConnectDisconnect(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	const perUser = 50
	var wg sync.WaitGroup
	for _, user := range []string{"alice", "bob"} {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(user string, i int) {
				defer wg.Done()
				connID := fmt.Sprintf("%s-%d", user, i)
				reg.Connect(user, connID)
				if i%2 == 0 {
					reg.Disconnect(connID)
				}
			}(user, i)
		}
	}
	wg.Wait()

	for _, user := range []string{"alice", "bob"} {
		got := reg.ConnectionsFor(user)
		if len(got) != perUser/2 {
			t.Errorf("ConnectionsFor(%s): got %d connections, want %d", user, len(got), perUser/2)
		}
	}
}
