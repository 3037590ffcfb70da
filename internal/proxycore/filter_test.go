package proxycore

import (
	"net/netip"
	"testing"
)

func mustAddr(s string) netip.Addr {
	a, err := netip.ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestCIDREntryMatchesWithinRangeOnly(t *testing.T) {
	e, err := ParseFilterEntry("10.0.0.0/8")
	if err != nil {
		t.Fatalf("ParseFilterEntry: %v", err)
	}

	if !e.Matches(mustAddr("10.255.255.255"), "irrelevant") {
		t.Fatalf("10.255.255.255 should be inside 10.0.0.0/8")
	}
	if e.Matches(mustAddr("11.0.0.0"), "irrelevant") {
		t.Fatalf("11.0.0.0 should be outside 10.0.0.0/8")
	}
}

func TestBareAddressImpliesSlash32(t *testing.T) {
	e, err := ParseFilterEntry("192.168.1.1")
	if err != nil {
		t.Fatalf("ParseFilterEntry: %v", err)
	}

	if !e.Matches(mustAddr("192.168.1.1"), "irrelevant") {
		t.Fatalf("bare address should match itself")
	}
	if e.Matches(mustAddr("192.168.1.2"), "irrelevant") {
		t.Fatalf("bare address must not match a neighboring address")
	}
}

func TestZeroSlashZeroMatchesEverything(t *testing.T) {
	e, err := ParseFilterEntry("0.0.0.0/0")
	if err != nil {
		t.Fatalf("ParseFilterEntry: %v", err)
	}

	if !e.Matches(mustAddr("8.8.8.8"), "irrelevant") {
		t.Fatalf("0.0.0.0/0 should match any address")
	}
}

func TestLiteralEntryMatchesExactHostOnly(t *testing.T) {
	e, err := ParseFilterEntry("blocked.example.com")
	if err != nil {
		t.Fatalf("ParseFilterEntry: %v", err)
	}

	if !e.Matches(mustAddr("1.2.3.4"), "blocked.example.com") {
		t.Fatalf("literal entry should match exact host string")
	}
	if e.Matches(mustAddr("1.2.3.4"), "sub.blocked.example.com") {
		t.Fatalf("literal entry must not match on substring/subdomain")
	}
}

func TestFirstDigitDeterminesCIDRClassification(t *testing.T) {
	if _, err := ParseFilterEntry("123.not.actually.an.ip"); err == nil {
		t.Fatalf("a leading-digit line that is not a valid CIDR should error")
	}
	if _, err := ParseFilterEntry("not.a.number.example.com"); err != nil {
		t.Fatalf("a line not starting with a digit should parse as a literal: %v", err)
	}
}

func TestBlockedScansEveryEntry(t *testing.T) {
	list := &FilterList{}
	e1, _ := ParseFilterEntry("10.0.0.0/8")
	e2, _ := ParseFilterEntry("bad.example.com")
	list.entries = []FilterEntry{e1, e2}

	if !list.Blocked(mustAddr("10.1.2.3"), "anything") {
		t.Fatalf("expected CIDR entry to block 10.1.2.3")
	}
	if !list.Blocked(mustAddr("9.9.9.9"), "bad.example.com") {
		t.Fatalf("expected literal entry to block by host")
	}
	if list.Blocked(mustAddr("9.9.9.9"), "fine.example.com") {
		t.Fatalf("unrelated address/host should not be blocked")
	}
}
