package csvfeed

import "testing"

func TestParseRecordValid(t *testing.T) {
	r, err := ParseRecord("42,2026-08-06T10:00:00Z,55.5,ON,ENGINE_OK")
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if r.VehicleID != 42 || r.Speed != 55.5 || !r.EngineOn || r.Status != EngineOK {
		t.Fatalf("got %+v", r)
	}
}

func TestParseRecordOverheat(t *testing.T) {
	r, err := ParseRecord("7,t,10,0,ENGINE_OVERHEAT")
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if r.EngineOn || r.Status != EngineOverheat {
		t.Fatalf("got %+v", r)
	}
}

func TestParseRecordWrongFieldCount(t *testing.T) {
	if _, err := ParseRecord("1,2,3"); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestParseRecordUnknownStatusFallsBack(t *testing.T) {
	r, err := ParseRecord("1,t,1,1,SOMETHING_ELSE")
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if r.Status != EngineUnknown {
		t.Fatalf("status = %v, want EngineUnknown", r.Status)
	}
}
