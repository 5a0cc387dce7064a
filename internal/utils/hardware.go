package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// UnknownTerminal is reported when no network interface has a hardware address.
const UnknownTerminal = "BMS-UNKNOWN"

// TerminalID hashes the first active MAC address of this machine into a short
// stable till identifier like "BMS-A1B2C3D4", printed on receipts.
func TerminalID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return UnknownTerminal
	}

	var macs []string
	for _, i := range interfaces {
		// Only active physical interfaces carry a hardware address
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			macs = append(macs, i.HardwareAddr.String())
		}
	}
	return terminalID(macs)
}

func terminalID(macs []string) string {
	if len(macs) == 0 || macs[0] == "" {
		return UnknownTerminal
	}
	hash := sha256.Sum256([]byte(macs[0] + "BMS-MART-TILL"))
	return "BMS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}
