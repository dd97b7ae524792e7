// Package domain defines the value types of the device trust policy: threats
// reported by platform detectors, the graduated security actions they map to,
// and the decision record consumed by orchestration code.
package domain

import "context"

// Threat is a single tamper signal produced by a platform threat detector.
//
// Detection itself (file probes, build-property inspection, process scanning)
// is platform-specific and lives behind the ThreatDetector interface; this
// package only classifies the resulting signals.
type Threat string

const (
	// Permanent-class threats: evidence the device integrity is broken.
	ThreatRootAccess        Threat = "root_access"
	ThreatRootManagementApp Threat = "root_management_app"
	ThreatEmulator          Threat = "emulator"
	ThreatHookingFramework  Threat = "hooking_framework"
	ThreatAppTampering      Threat = "app_tampering"
	ThreatSSLPinningBypass  Threat = "ssl_pinning_bypass"
	ThreatProcessInjection  Threat = "process_injection"

	// Temporary-class threats: resolvable developer or debug conditions.
	ThreatDebuggerAttached Threat = "debugger_attached"
	ThreatDeveloperMode    Threat = "developer_mode"
	ThreatADBEnabled       Threat = "adb_enabled"
	ThreatActiveTrace      Threat = "active_trace"

	// Degrade-class threats: network conditions that reduce trust.
	ThreatVPNActive     Threat = "vpn_active"
	ThreatProxyDetected Threat = "proxy_detected"

	// Warn-class threats: suspicious but inconclusive signals.
	ThreatMockLocation    Threat = "mock_location"
	ThreatSuBinaryPresent Threat = "su_binary_present"
)

// ThreatClass grades how strongly a single threat indicates compromise,
// independent of the action category it falls in. Classes drive the
// aggregate-severity fallback for threats outside the fixed categories.
type ThreatClass int

const (
	ClassLow ThreatClass = iota
	ClassMedium
	ClassHigh
	ClassCritical
)

// threatClasses assigns a class to every known threat. Unknown threats
// default to ClassMedium: a signal we cannot name still came from a detector
// that considered it worth reporting.
var threatClasses = map[Threat]ThreatClass{
	ThreatRootAccess:        ClassCritical,
	ThreatHookingFramework:  ClassCritical,
	ThreatProcessInjection:  ClassCritical,
	ThreatAppTampering:      ClassCritical,
	ThreatSSLPinningBypass:  ClassCritical,
	ThreatRootManagementApp: ClassHigh,
	ThreatEmulator:          ClassHigh,
	ThreatDebuggerAttached:  ClassHigh,
	ThreatActiveTrace:       ClassHigh,
	ThreatDeveloperMode:     ClassMedium,
	ThreatADBEnabled:        ClassMedium,
	ThreatVPNActive:         ClassMedium,
	ThreatProxyDetected:     ClassMedium,
	ThreatMockLocation:      ClassMedium,
	ThreatSuBinaryPresent:   ClassLow,
}

// Class returns the threat's class, defaulting to ClassMedium for threats
// this build does not know.
func (t Threat) Class() ThreatClass {
	if class, ok := threatClasses[t]; ok {
		return class
	}
	return ClassMedium
}

// resolutionInstructions maps each threat to the user-facing remediation step.
var resolutionInstructions = map[Threat]string{
	ThreatRootAccess:        "Remove root access from this device.",
	ThreatRootManagementApp: "Uninstall root management applications.",
	ThreatEmulator:          "Use a physical device instead of an emulator.",
	ThreatHookingFramework:  "Remove hooking frameworks such as Xposed or Frida.",
	ThreatAppTampering:      "Reinstall the application from the official store.",
	ThreatSSLPinningBypass:  "Remove tools that intercept secure connections.",
	ThreatProcessInjection:  "Remove software that injects into running applications.",
	ThreatDebuggerAttached:  "Detach the debugger from the application.",
	ThreatDeveloperMode:     "Disable developer mode in system settings.",
	ThreatADBEnabled:        "Disable USB debugging in system settings.",
	ThreatActiveTrace:       "Stop tracing tools attached to the application.",
	ThreatVPNActive:         "Disable the VPN connection.",
	ThreatProxyDetected:     "Disable the network proxy.",
	ThreatMockLocation:      "Disable mock location in developer settings.",
	ThreatSuBinaryPresent:   "Remove the su binary or the app that installed it.",
}

// ResolutionInstruction returns the remediation step for the threat, or an
// empty string when none is known.
func (t Threat) ResolutionInstruction() string {
	return resolutionInstructions[t]
}

// ThreatDetector is implemented per platform by the probe layer. The severity
// hint reflects the detector's own confidence and is consulted only as a
// fallback when the fixed classification table does not decide the action.
type ThreatDetector interface {
	DetectThreats(ctx context.Context) ([]Threat, Severity, error)
}
