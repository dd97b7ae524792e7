package service

import (
	"context"

	policyDomain "github.com/allisson/factorauth/internal/policy/domain"
)

// StaticThreatDetector reports a fixed threat set. Useful for CLI checks and
// as a stand-in where the real client-side detector publishes its findings
// out of band.
type StaticThreatDetector struct {
	threats  []policyDomain.Threat
	severity policyDomain.Severity
	err      error
}

// NewStaticThreatDetector creates a detector that always reports the given
// threats and severity hint.
func NewStaticThreatDetector(threats []policyDomain.Threat, severity policyDomain.Severity) *StaticThreatDetector {
	return &StaticThreatDetector{threats: threats, severity: severity}
}

// NewFailingThreatDetector creates a detector that always returns err.
func NewFailingThreatDetector(err error) *StaticThreatDetector {
	return &StaticThreatDetector{err: err}
}

// DetectThreats implements policyDomain.ThreatDetector.
func (d *StaticThreatDetector) DetectThreats(_ context.Context) ([]policyDomain.Threat, policyDomain.Severity, error) {
	if d.err != nil {
		return nil, policyDomain.SeverityLow, d.err
	}
	return append([]policyDomain.Threat(nil), d.threats...), d.severity, nil
}
