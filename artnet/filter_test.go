package artnet

import "testing"

func TestFilterMatchesEverythingWhenUnset(t *testing.T) {
	f := &Filter{}
	if !f.Match(Address{Net: 1, Subnet: 2, Universe: 3}) {
		t.Fatalf("expected no-filter Match to accept any address")
	}
}

func TestFilterRejectsNonMatch(t *testing.T) {
	f := &Filter{}
	f.Set(&Address{Net: 0, Subnet: 0, Universe: 5})

	if f.Match(Address{Net: 0, Subnet: 0, Universe: 4}) {
		t.Fatalf("expected mismatch to be rejected")
	}
	if !f.Match(Address{Net: 0, Subnet: 0, Universe: 5}) {
		t.Fatalf("expected exact match to be accepted")
	}
}

func TestFilterClear(t *testing.T) {
	f := &Filter{}
	f.Set(&Address{Universe: 1})
	f.Set(nil)
	if !f.Match(Address{Universe: 99}) {
		t.Fatalf("expected cleared filter to accept any address")
	}
}
