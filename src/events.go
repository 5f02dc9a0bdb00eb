package samealert

// Significance ranks an event code by how urgently it should be
// treated.  Routine required tests are the only class that may be
// dropped entirely.
type Significance int

const (
	SigUnknown Significance = iota
	SigTest
	SigStatement
	SigWatch
	SigWarning
	SigEmergency
)

type eventInfo struct {
	Name string
	Sig  Significance
}

// Event codes from the NWS/FCC SAME tables.  Codes not listed fall
// back to the trailing-letter convention below.
var eventTable = map[string]eventInfo{
	"ADR": {"Administrative Message", SigStatement},
	"AVA": {"Avalanche Watch", SigWatch},
	"AVW": {"Avalanche Warning", SigWarning},
	"BZW": {"Blizzard Warning", SigWarning},
	"CAE": {"Child Abduction Emergency", SigEmergency},
	"CDW": {"Civil Danger Warning", SigWarning},
	"CEM": {"Civil Emergency Message", SigEmergency},
	"CFA": {"Coastal Flood Watch", SigWatch},
	"CFW": {"Coastal Flood Warning", SigWarning},
	"DMO": {"Practice/Demo Warning", SigTest},
	"DSW": {"Dust Storm Warning", SigWarning},
	"EAN": {"Emergency Action Notification", SigEmergency},
	"EAT": {"Emergency Action Termination", SigStatement},
	"EQW": {"Earthquake Warning", SigWarning},
	"EVI": {"Evacuation Immediate", SigWarning},
	"EWW": {"Extreme Wind Warning", SigWarning},
	"FFA": {"Flash Flood Watch", SigWatch},
	"FFS": {"Flash Flood Statement", SigStatement},
	"FFW": {"Flash Flood Warning", SigWarning},
	"FLA": {"Flood Watch", SigWatch},
	"FLS": {"Flood Statement", SigStatement},
	"FLW": {"Flood Warning", SigWarning},
	"FRW": {"Fire Warning", SigWarning},
	"FSW": {"Flash Freeze Warning", SigWarning},
	"FZW": {"Freeze Warning", SigWarning},
	"HLS": {"Hurricane Local Statement", SigStatement},
	"HMW": {"Hazardous Materials Warning", SigWarning},
	"HUA": {"Hurricane Watch", SigWatch},
	"HUW": {"Hurricane Warning", SigWarning},
	"HWA": {"High Wind Watch", SigWatch},
	"HWW": {"High Wind Warning", SigWarning},
	"LAE": {"Local Area Emergency", SigEmergency},
	"LEW": {"Law Enforcement Warning", SigWarning},
	"NIC": {"National Information Center", SigStatement},
	"NMN": {"Network Message Notification", SigStatement},
	"NPT": {"National Periodic Test", SigTest},
	"NUW": {"Nuclear Power Plant Warning", SigWarning},
	"RHW": {"Radiological Hazard Warning", SigWarning},
	"RMT": {"Required Monthly Test", SigTest},
	"RWT": {"Required Weekly Test", SigTest},
	"SMW": {"Special Marine Warning", SigWarning},
	"SPS": {"Special Weather Statement", SigStatement},
	"SPW": {"Shelter in Place Warning", SigWarning},
	"SQW": {"Snow Squall Warning", SigWarning},
	"SSA": {"Storm Surge Watch", SigWatch},
	"SSW": {"Storm Surge Warning", SigWarning},
	"SVA": {"Severe Thunderstorm Watch", SigWatch},
	"SVR": {"Severe Thunderstorm Warning", SigWarning},
	"SVS": {"Severe Weather Statement", SigStatement},
	"TOA": {"Tornado Watch", SigWatch},
	"TOE": {"911 Telephone Outage Emergency", SigEmergency},
	"TOR": {"Tornado Warning", SigWarning},
	"TRA": {"Tropical Storm Watch", SigWatch},
	"TRW": {"Tropical Storm Warning", SigWarning},
	"TSA": {"Tsunami Watch", SigWatch},
	"TSW": {"Tsunami Warning", SigWarning},
	"VOW": {"Volcano Warning", SigWarning},
	"WFA": {"Wild Fire Watch", SigWatch},
	"WFW": {"Wild Fire Warning", SigWarning},
	"WSA": {"Winter Storm Watch", SigWatch},
	"WSW": {"Winter Storm Warning", SigWarning},
}

// EventName returns a human readable name for the code, falling back
// to the code itself.
func EventName(code string) string {
	if info, ok := eventTable[code]; ok {
		return info.Name
	}
	return code
}

// EventSignificance classifies a code.  Unlisted codes use the SAME
// trailing-letter convention: W warning, A watch, E emergency,
// S statement, T test.
func EventSignificance(code string) Significance {
	if info, ok := eventTable[code]; ok {
		return info.Sig
	}
	if len(code) != 3 {
		return SigUnknown
	}
	switch code[2] {
	case 'W':
		return SigWarning
	case 'A':
		return SigWatch
	case 'E':
		return SigEmergency
	case 'S':
		return SigStatement
	case 'T':
		return SigTest
	default:
		return SigUnknown
	}
}

// IsRoutineTest reports whether the code denotes a routine required
// test transmission.
func IsRoutineTest(code string) bool {
	return EventSignificance(code) == SigTest
}

// sigEmoji matches the prefixes the mesh messages have always used.
func sigEmoji(s Significance) string {
	switch s {
	case SigTest:
		return "\U0001F4D6" // open book
	case SigStatement:
		return "\U0001F4DF" // pager
	case SigWatch:
		return "⚠️" // warning sign
	default:
		return "\U0001F6A8" // rotating light
	}
}

// Originator long names for the "Issued By" clause.
var originatorNames = map[string]string{
	"PEP": "United States Government",
	"CIV": "Civil Authorities",
	"WXR": "National Weather Service",
	"EAS": "EAS Participant",
}

// OriginatorName returns the long form of a 3-letter originator code,
// falling back to the code itself.
func OriginatorName(code string) string {
	if name, ok := originatorNames[code]; ok {
		return name
	}
	return code
}
