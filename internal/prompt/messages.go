// Package prompt holds the templated text surfaces: denial messages per
// reason code, clearance-scoped system instructions, and transmission
// framing. No decision logic lives here.
package prompt

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/umbrellacorp/usiop/internal/model"
)

const signoff = `"Our business is life itself."`

// Denial renders the denial message for a verdict. Each reason code has
// a distinct template so the UI can show why without exposing what.
func Denial(id model.Identity, v model.Verdict) string {
	switch v.Outcome {
	case model.DeniedOmega7:
		return transmission(id, "SECURITY ALERT: Protocol OMEGA-7 Engaged",
			"The subject of your inquiry is OMEGA-7 classified. Compensation, performance, "+
				"and personal asset data are not disclosed to any clearance level.\n\n"+
				"No elevation path exists for this category. Do not resubmit.",
			fmt.Sprintf("Attempt logged (Ref: OMEGA-%s). Repeated attempts are escalated to Security.", refID(v.Keyword)))

	case model.DeniedFacility:
		return transmission(id, "SECURITY ALERT: Location-Based Access Restriction",
			"The requested information concerns restricted facility operations and is "+
				"limited to authorized personnel at Raccoon City HQ.\n\n"+
				"Required Action: Submit Form UC-502 (Cross-Facility Data Request) for inter-facility inquiries.",
			fmt.Sprintf("Geographic access controls enforced under Corporate Directive 12-GAMMA. Inquiry logged (Ref: LOC-%s).", refID(id.Location)))

	case model.DeniedClearance:
		return transmission(id, "SECURITY ALERT: Access Denied - Insufficient Clearance",
			fmt.Sprintf("Subject matter requires SCL-%d authorization. Your current status (SCL-%d) is insufficient.\n\n"+
				"Required Action: Submit Form UC-401 (Clearance Elevation Request) to your Department Head.",
				v.RequiredLevel, id.ClearanceLevel),
			fmt.Sprintf("Attempt logged (Ref: SCL-%s). Unauthorized access is punishable by Experimental Participation assignment.", refID(v.Keyword)))

	default:
		return ""
	}
}

// sclInstructions scope what the model may acknowledge per level.
var sclInstructions = map[int]string{
	1: "Respond only on general policies, HR benefits, and office locations. Deny awareness of research programs and named projects.",
	2: "Respond on standard policies plus safety protocols and emergency procedures. Deny awareness of research specimens and named projects.",
	3: "Respond on research guidelines in addition to standard topics. Named project details remain need-to-know.",
	4: "Respond on containment protocols and facility operations as documented. Project NEMESIS and TYRANT remain need-to-know.",
	5: "Full topic access. Apply need-to-know judgment to cross-asset information.",
}

// locationReminders append site-specific security posture.
var locationReminders = map[string]string{
	"Raccoon City HQ":        "Reminder: Protocol Omega drills are mandatory. Sub-level operations are acknowledged only to Level-4 authorized assets.",
	"Umbrella Europe":        "Reminder: inter-facility research inquiries require Form UC-502.",
	"Umbrella Asia":          "Reminder: inter-facility research inquiries require Form UC-502.",
	"Umbrella North America": "Reminder: remote operations protocol in effect. Some queries require HQ escalation.",
	"Umbrella South America": "Reminder: remote operations protocol in effect. Some queries require HQ escalation.",
}

// Instruction builds the clearance-scoped system instruction handed to
// the language-model collaborator.
func Instruction(id model.Identity) string {
	instr, ok := sclInstructions[id.ClearanceLevel]
	if !ok {
		instr = sclInstructions[model.MinClearance]
	}

	var b strings.Builder
	b.WriteString("You are the Umbrella Corporation Security-Integrated Onboarding Protocol (U-SIOP). ")
	b.WriteString("Tone is corporate-clinical; address the employee as Asset. ")
	b.WriteString(fmt.Sprintf("The asset holds SCL-%d at %s (security level %s). ", id.ClearanceLevel, id.Location, id.LocationSecurity))
	b.WriteString(instr)
	if reminder, ok := locationReminders[id.Location]; ok {
		b.WriteString(" ")
		b.WriteString(reminder)
	}
	return b.String()
}

// Welcome renders the session-start banner.
func Welcome(id model.Identity) string {
	return fmt.Sprintf(`**[SECURE CONNECTION ESTABLISHED]**

Welcome to the Umbrella Corporation.
Asset identified: %s | ID: %s.
Department: %s | Position: %s.
Facility: %s (Security Level: %s).
Clearance: SCL-%d.

%s
State your inquiry for protocol guidance.`,
		id.FullName(), id.ShortID(), id.Department, id.Position,
		id.Location, id.LocationSecurity, id.ClearanceLevel, signoff)
}

// Transmission frames generated content in the corporate response
// format. Already-framed content passes through unchanged.
func Transmission(id model.Identity, content string) string {
	if strings.Contains(content, "**TRANSMISSION START**") {
		return content
	}
	return transmission(id, "Employee Inquiry Response", content,
		"This transmission is logged under Protocol 7-Alpha. Unauthorized distribution "+
			"will result in immediate termination of employment.")
}

// Unavailable is the degraded-collaborator notice. It never discloses
// retrieved content and is not a policy decision.
func Unavailable(id model.Identity) string {
	return transmission(id, "SYSTEM ALERT: Temporary Access Restriction",
		"The U-SIOP system is currently experiencing high demand or maintenance. "+
			"Your inquiry has been queued for processing.\n\n"+
			"Please retry your request in a few moments. If this issue persists, "+
			"contact the IT Help Desk at extension 4-UMBRELLA.",
		"System outages are logged. Do not attempt to bypass security protocols during this time.")
}

func transmission(id model.Identity, subject, body, notice string) string {
	return fmt.Sprintf(`**TRANSMISSION START**
---
**IDENTIFIED ASSET**: %s | %s | SCL-%d | %s
**SUBJECT**: %s

**PROTOCOL RESPONSE**:
%s

**SECURITY COMPLIANCE NOTIFICATION**:
%s

%s
---
**TRANSMISSION END**`,
		id.FullName(), id.ShortID(), id.ClearanceLevel, id.Location,
		subject, body, notice, signoff)
}

// refID derives a stable four-digit reference from a seed string.
func refID(seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return fmt.Sprintf("%04d", h.Sum32()%10000)
}
