package bootinfo

import "testing"

func TestVisitMemRegionsStopsEarly(t *testing.T) {
	SetInfoPtr(&Info{
		MemoryMap: []MemoryRegion{
			{Start: 0, Len: 0x1000, Kind: RegionReserved},
			{Start: 0x1000, Len: 0x1000, Kind: RegionUsable},
			{Start: 0x2000, Len: 0x1000, Kind: RegionUsable},
		},
	})

	var visited []uint64
	VisitMemRegions(func(r *MemoryRegion) bool {
		visited = append(visited, r.Start)
		return r.Start != 0x1000
	})

	if len(visited) != 2 {
		t.Fatalf("expected visitor to stop after 2 regions, visited %v", visited)
	}
}

func TestPhysicalMemoryOffset(t *testing.T) {
	SetInfoPtr(&Info{PhysicalMemoryOffset: 0xFFFF800000000000})
	if got := PhysicalMemoryOffset(); got != 0xFFFF800000000000 {
		t.Errorf("expected offset 0xFFFF800000000000, got %x", got)
	}
}

func TestRegionKindString(t *testing.T) {
	if RegionUsable.String() != "usable" {
		t.Errorf("expected RegionUsable.String() == \"usable\", got %q", RegionUsable.String())
	}
	if RegionReserved.String() != "reserved" {
		t.Errorf("expected RegionReserved.String() == \"reserved\", got %q", RegionReserved.String())
	}
}
