package threshold_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// This file only registers the suite; the specs live in
// threshold_property_test.go, mirroring the teacher's split between
// protocols/lss/lss_suite_test.go and lss_property_test.go.
func TestThreshold(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Threshold ML-DSA Protocol Suite")
}
