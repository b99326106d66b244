package services

import (
	"testing"

	"editorial-workflow-api/models"
)

func TestValidRecommendation(t *testing.T) {
	for _, value := range []string{
		models.RecPublishTier1, models.RecPublishTier2, models.RecPublishTier3,
		models.RecMinorRevision, models.RecMajorRevision, models.RecReject,
	} {
		if !validRecommendation(value) {
			t.Errorf("%q must be accepted", value)
		}
	}
	for _, value := range []string{"", "publish", "accept", "tier_1"} {
		if validRecommendation(value) {
			t.Errorf("%q must be rejected", value)
		}
	}
}

func TestValidVettingDecision(t *testing.T) {
	for _, status := range []string{
		models.ReportVetted, models.ReportRejectedUnclear, models.ReportRejectedIncorrect,
		models.ReportRejectedNotUseful, models.ReportRejectedNotAcademic,
	} {
		if !validVettingDecision(status) {
			t.Errorf("%q must be accepted", status)
		}
	}
	// draft and unvetted are states, not decisions
	for _, status := range []string{models.ReportDraft, models.ReportUnvetted, "", "rejected"} {
		if validVettingDecision(status) {
			t.Errorf("%q must be rejected", status)
		}
	}
}

func TestReportVettedCoversRejectedVariants(t *testing.T) {
	for _, status := range []string{
		models.ReportVetted, models.ReportRejectedUnclear, models.ReportRejectedIncorrect,
		models.ReportRejectedNotUseful, models.ReportRejectedNotAcademic,
	} {
		r := models.Report{Status: status}
		if !r.Vetted() {
			t.Errorf("%q must count as vetted", status)
		}
		if r.AwaitingVetting() {
			t.Errorf("%q must not await vetting", status)
		}
	}
	r := models.Report{Status: models.ReportUnvetted}
	if !r.AwaitingVetting() || r.Vetted() {
		t.Error("unvetted report must await vetting")
	}
}
