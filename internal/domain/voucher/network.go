package voucher

import (
	"strings"
)

// Network identifies a mobile network operator
type Network string

const (
	NetworkMTN     Network = "MTN"
	NetworkAirtel  Network = "AIRTEL"
	NetworkGlo     Network = "GLO"
	Network9Mobile Network = "9MOBILE"
)

// PinPlaceholder is substituted with the PIN in dial templates
const PinPlaceholder = "PIN"

// Badge holds the brand colors used for a network badge
type Badge struct {
	Background string
	Foreground string
}

type networkProfile struct {
	ussd  string
	badge Badge
}

var networkProfiles = map[Network]networkProfile{
	NetworkMTN:     {ussd: "*555*PIN#", badge: Badge{Background: "#FFCC00", Foreground: "#000000"}},
	NetworkAirtel:  {ussd: "*126*PIN#", badge: Badge{Background: "#FF0000", Foreground: "#FFFFFF"}},
	NetworkGlo:     {ussd: "*123*PIN#", badge: Badge{Background: "#1AB31A", Foreground: "#FFFFFF"}},
	Network9Mobile: {ussd: "*222*PIN#", badge: Badge{Background: "#006400", Foreground: "#FFFFFF"}},
}

var unknownProfile = networkProfile{
	ussd:  "*XXX*PIN#",
	badge: Badge{Background: "#2563EB", Foreground: "#FFFFFF"},
}

// ParseNetwork normalizes a network name as returned by the backend.
// Unknown names are kept upper-cased so they still render with the fallback profile.
func ParseNetwork(s string) Network {
	n := strings.ToUpper(strings.TrimSpace(s))
	switch n {
	case "ETISALAT", "NINEMOBILE", "9-MOBILE":
		return Network9Mobile
	}
	return Network(n)
}

// IsValid returns true for the supported operators
func (n Network) IsValid() bool {
	_, ok := networkProfiles[n]
	return ok
}

// String returns the string representation of Network
func (n Network) String() string {
	return string(n)
}

// USSDTemplate returns the dial template for the network, with PinPlaceholder where the PIN goes
func (n Network) USSDTemplate() string {
	return n.profile().ussd
}

// DialInstruction returns the dial string with the PIN substituted in
func (n Network) DialInstruction(pin string) string {
	return strings.Replace(n.USSDTemplate(), PinPlaceholder, Dechunk(pin), 1)
}

// Badge returns the brand colors for the network
func (n Network) Badge() Badge {
	return n.profile().badge
}

func (n Network) profile() networkProfile {
	if p, ok := networkProfiles[n]; ok {
		return p
	}
	return unknownProfile
}

// AllNetworks returns the supported networks in display order
func AllNetworks() []Network {
	return []Network{NetworkMTN, NetworkAirtel, NetworkGlo, Network9Mobile}
}
