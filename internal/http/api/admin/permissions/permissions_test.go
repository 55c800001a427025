package permissions

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"
)

func TestNormalizeDeduplicatesAndSorts(t *testing.T) {
	got := Normalize([]string{" Shops ", "games", "SHOPS", "", "events"})
	want := []string{"events", "games", "shops"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	if errValidate := Validate([]string{PermShops, PermRewards}); errValidate != nil {
		t.Fatalf("valid keys rejected: %v", errValidate)
	}
	if errValidate := Validate([]string{"billing"}); errValidate == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	raw, errMarshal := Marshal([]string{PermGames, PermShops})
	if errMarshal != nil {
		t.Fatalf("marshal: %v", errMarshal)
	}
	got := Parse(datatypes.JSON(raw))
	want := []string{"games", "shops"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseMalformedYieldsEmpty(t *testing.T) {
	if got := Parse(datatypes.JSON([]byte(`{"not":"a list"}`))); len(got) != 0 {
		t.Fatalf("expected empty list for malformed data, got %v", got)
	}
	if got := Parse(nil); len(got) != 0 {
		t.Fatalf("expected empty list for nil data, got %v", got)
	}
}

func TestHas(t *testing.T) {
	granted := []string{PermShops, PermEvents}
	if !Has(granted, PermShops) {
		t.Fatalf("expected shops to be granted")
	}
	if Has(granted, PermPlayers) {
		t.Fatalf("expected players to be denied")
	}
}

func TestAllCoversEveryKey(t *testing.T) {
	all := All()
	if len(all) != len(known) {
		t.Fatalf("expected %d keys, got %d", len(known), len(all))
	}
	if errValidate := Validate(all); errValidate != nil {
		t.Fatalf("All returned an invalid key: %v", errValidate)
	}
}
