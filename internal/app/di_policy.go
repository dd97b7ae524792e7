package app

import (
	policyDomain "github.com/allisson/factorauth/internal/policy/domain"
	policyService "github.com/allisson/factorauth/internal/policy/service"
)

// Evaluator returns the device trust policy evaluator.
func (c *Container) Evaluator() *policyService.Evaluator {
	c.evaluatorInit.Do(func() {
		c.evaluator = policyService.NewEvaluator(policyService.Config{
			AlertOnDegrade:            c.config.PolicyAlertOnDegrade,
			TemporaryAlertMinSeverity: policyDomain.ParseSeverity(c.config.PolicyTemporaryAlertMinSeverity),
		})
	})
	return c.evaluator
}

// ThreatDetector returns the configured threat detector. Real detection runs
// on the client device; deployments inject their detector through
// SetThreatDetector before the use case is first built. Without one, the
// default reports a clean device.
func (c *Container) ThreatDetector() policyDomain.ThreatDetector {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detector == nil {
		c.detector = policyService.NewStaticThreatDetector(nil, policyDomain.SeverityLow)
	}
	return c.detector
}

// SetThreatDetector injects a threat detector implementation.
func (c *Container) SetThreatDetector(detector policyDomain.ThreatDetector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detector = detector
}
