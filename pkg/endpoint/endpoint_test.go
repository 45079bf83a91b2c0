package endpoint

import (
	"net"
	"testing"
)

func TestEndpointAddress(t *testing.T) {
	tests := []struct {
		name string
		ep   Endpoint
		want string
	}{
		{"placeholder port", Endpoint{Host: "192.168.1.20"}, "192.168.1.20:9999"},
		{"explicit port", Endpoint{Host: "192.168.1.20", Port: 8080}, "192.168.1.20:8080"},
		{"ipv6 placeholder", Endpoint{Host: "fe80::1", Family: FamilyIPv6}, "[fe80::1]:9999"},
		{"hostname", Endpoint{Host: "plug.local"}, "plug.local:9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.Address(9999); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpointString(t *testing.T) {
	if got := (Endpoint{Host: "10.0.0.1"}).String(); got != "10.0.0.1" {
		t.Errorf("String() = %q, want %q", got, "10.0.0.1")
	}
	if got := (Endpoint{Host: "::1", Port: 80}).String(); got != "[::1]:80" {
		t.Errorf("String() = %q, want %q", got, "[::1]:80")
	}
}

func TestFromIP(t *testing.T) {
	v4 := FromIP(net.ParseIP("192.168.1.5"), 0)
	if v4.Family != FamilyIPv4 || v4.Host != "192.168.1.5" || v4.Port != 0 {
		t.Errorf("FromIP(v4) = %+v", v4)
	}

	v6 := FromIP(net.ParseIP("2001:db8::5"), 9999)
	if v6.Family != FamilyIPv6 || v6.Host != "2001:db8::5" || v6.Port != 9999 {
		t.Errorf("FromIP(v6) = %+v", v6)
	}
}

func TestEndpointComparable(t *testing.T) {
	a := Endpoint{Host: "10.0.0.1", Family: FamilyIPv4}
	b := FromIP(net.ParseIP("10.0.0.1"), 0)
	if a != b {
		t.Errorf("%+v != %+v", a, b)
	}
}

func TestFamilyString(t *testing.T) {
	tests := []struct {
		family Family
		want   string
	}{
		{FamilyUnspecified, "UNSPECIFIED"},
		{FamilyIPv4, "IPV4"},
		{FamilyIPv6, "IPV6"},
		{Family(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.family.String(); got != tt.want {
			t.Errorf("Family(%d).String() = %q, want %q", tt.family, got, tt.want)
		}
	}
}
