// Package climate maps Texas ZIP codes to climate zones with fixed usage
// modifiers reflecting regional heating and cooling load.
package climate

// ZoneID identifies one of the named Texas metro climate zones.
type ZoneID string

const (
	ZoneHouston    ZoneID = "houston"
	ZoneDallas     ZoneID = "dallas"
	ZoneFortWorth  ZoneID = "fort-worth"
	ZoneAustin     ZoneID = "austin"
	ZoneSanAntonio ZoneID = "san-antonio"
	ZoneOther      ZoneID = "other"
)

// Zone is an immutable reference record for a climate zone.
type Zone struct {
	ID            ZoneID  `json:"id"`
	DisplayName   string  `json:"displayName"`
	UsageModifier float64 `json:"usageModifier"`
}

// zones holds the fixed zone definitions. Modifiers are constants, never
// derived at runtime.
var zones = map[ZoneID]Zone{
	ZoneHouston:    {ID: ZoneHouston, DisplayName: "Houston Metro", UsageModifier: 0.15},
	ZoneDallas:     {ID: ZoneDallas, DisplayName: "Dallas Metro", UsageModifier: 0.12},
	ZoneFortWorth:  {ID: ZoneFortWorth, DisplayName: "Fort Worth / West Texas", UsageModifier: 0.10},
	ZoneAustin:     {ID: ZoneAustin, DisplayName: "Austin Metro", UsageModifier: 0.08},
	ZoneSanAntonio: {ID: ZoneSanAntonio, DisplayName: "San Antonio Metro", UsageModifier: 0.12},
	ZoneOther:      {ID: ZoneOther, DisplayName: "Other Texas", UsageModifier: 0.10},
}

// prefixZones maps 3-digit ZIP prefixes to zones. Prefixes outside the major
// metro areas all fall through to ZoneOther.
var prefixZones = map[string]ZoneID{
	// Houston metro
	"770": ZoneHouston,
	"772": ZoneHouston,
	"773": ZoneHouston,
	"774": ZoneHouston,
	"775": ZoneHouston,
	"776": ZoneHouston, // Beaumont shares the Gulf Coast load profile

	// Dallas metro
	"750": ZoneDallas,
	"751": ZoneDallas,
	"752": ZoneDallas,
	"753": ZoneDallas,

	// Fort Worth and points west
	"760": ZoneFortWorth,
	"761": ZoneFortWorth,
	"762": ZoneFortWorth,
	"763": ZoneFortWorth,
	"764": ZoneFortWorth,
	"769": ZoneFortWorth,

	// Austin metro
	"786": ZoneAustin,
	"787": ZoneAustin,
	"789": ZoneAustin,

	// San Antonio metro
	"780": ZoneSanAntonio,
	"781": ZoneSanAntonio,
	"782": ZoneSanAntonio,
}

// ResolveZone returns the climate zone for a ZIP code. It never fails: inputs
// shorter than 3 characters or with an unrecognized prefix resolve to the
// catch-all ZoneOther.
func ResolveZone(zip string) Zone {
	if len(zip) < 3 {
		return zones[ZoneOther]
	}
	id, ok := prefixZones[zip[:3]]
	if !ok {
		return zones[ZoneOther]
	}
	return zones[id]
}

// GetZone returns the zone definition for an ID.
func GetZone(id ZoneID) (Zone, bool) {
	z, ok := zones[id]
	return z, ok
}

// Zones returns all defined zones, catch-all included.
func Zones() []Zone {
	out := make([]Zone, 0, len(zones))
	for _, id := range []ZoneID{ZoneHouston, ZoneDallas, ZoneFortWorth, ZoneAustin, ZoneSanAntonio, ZoneOther} {
		out = append(out, zones[id])
	}
	return out
}

// ZoneCoversPrefix reports whether the given 3-digit prefix is assigned to the
// given zone. ZoneOther covers every prefix not claimed by a metro zone.
func ZoneCoversPrefix(id ZoneID, prefix string) bool {
	assigned, ok := prefixZones[prefix]
	if !ok {
		return id == ZoneOther
	}
	return assigned == id
}
