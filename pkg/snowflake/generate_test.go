package snowflake

import (
	"sync"
	"testing"
)

func resetGenerator() {
	node = nil
	once = sync.Once{}
}

func TestNextIDBeforeInit(t *testing.T) {
	resetGenerator()
	if _, err := NextID(); err == nil {
		t.Fatal("NextID() before Init should fail")
	}
}

func TestInitRejectsInvalidIDs(t *testing.T) {
	resetGenerator()
	if err := Init(32, 1); err != errInvalidMachineID {
		t.Errorf("Init(32, 1) = %v, want %v", err, errInvalidMachineID)
	}

	resetGenerator()
	if err := Init(1, -1); err != errInvalidDataCenterID {
		t.Errorf("Init(1, -1) = %v, want %v", err, errInvalidDataCenterID)
	}
}

func TestNextIDUnique(t *testing.T) {
	resetGenerator()
	if err := Init(1, 1); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(resetGenerator)

	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NextID()
		if err != nil {
			t.Fatalf("NextID() error = %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
}
