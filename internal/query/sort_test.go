package query

import (
	"reflect"
	"testing"

	"github.com/breeze-rmm/procmcp/internal/proctable"
)

func sortInput() []proctable.Record {
	return []proctable.Record{
		{PID: 10, Name: "a", CPUPercent: 5.0, MemoryMB: 100},
		{PID: 20, Name: "b", CPUPercent: 50.0, MemoryMB: 10},
		{PID: 30, Name: "c", CPUPercent: 5.0, MemoryMB: 500},
		{PID: 40, Name: "d", CPUPercent: 0.5, MemoryMB: 50},
	}
}

func TestSortByCPUDescDefault(t *testing.T) {
	got := pids(SortAndLimit(sortInput(), SortByCPU, OrderDesc, 0))
	want := []int32{20, 10, 30, 40}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortByCPUAsc(t *testing.T) {
	got := pids(SortAndLimit(sortInput(), SortByCPU, OrderAsc, 0))
	want := []int32{40, 10, 30, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortByMemory(t *testing.T) {
	got := pids(SortAndLimit(sortInput(), SortByMemory, OrderDesc, 0))
	want := []int32{30, 10, 40, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestTiesBreakByPIDAscendingBothDirections(t *testing.T) {
	// PIDs 10 and 30 tie on CPU. The tie must resolve 10 before 30 in
	// both sort directions.
	desc := pids(SortAndLimit(sortInput(), SortByCPU, OrderDesc, 0))
	if !reflect.DeepEqual(desc[1:3], []int32{10, 30}) {
		t.Errorf("desc tie order = %v, want [10 30]", desc[1:3])
	}

	asc := pids(SortAndLimit(sortInput(), SortByCPU, OrderAsc, 0))
	if !reflect.DeepEqual(asc[1:3], []int32{10, 30}) {
		t.Errorf("asc tie order = %v, want [10 30]", asc[1:3])
	}
}

func TestLimitTruncatesAfterSort(t *testing.T) {
	got := pids(SortAndLimit(sortInput(), SortByCPU, OrderDesc, 2))
	want := []int32{20, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("top 2 = %v, want %v", got, want)
	}
}

func TestLimitBeyondSetReturnsAll(t *testing.T) {
	got := SortAndLimit(sortInput(), SortByCPU, OrderDesc, 99)
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := sortInput()
	SortAndLimit(in, SortByCPU, OrderDesc, 2)
	if !reflect.DeepEqual(pids(in), []int32{10, 20, 30, 40}) {
		t.Errorf("input mutated: %v", pids(in))
	}
}
