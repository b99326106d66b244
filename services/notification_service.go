package services

import (
	"editorial-workflow-api/config"
	"editorial-workflow-api/models"
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Notification event keys. One event per meaningful workflow transition;
// templates live in the notification_message table keyed by
// (event_key, send_to).
const (
	EventAssignmentOffered    = "assignment_offered"
	EventAssignmentAccepted   = "assignment_accepted"
	EventAssignmentDeclined   = "assignment_declined"
	EventPreScreeningFailed   = "prescreening_failed"
	EventRefereeInvited       = "referee_invited"
	EventRefereeAccepted      = "referee_accepted"
	EventRefereeDeclined      = "referee_declined"
	EventRefereeReminder      = "referee_reminder"
	EventInvitationCancelled  = "invitation_cancelled"
	EventReportSubmitted      = "report_submitted"
	EventReportVetted         = "report_vetted"
	EventCommentVetted        = "comment_vetted"
	EventRecommendationFormed = "recommendation_formulated"
	EventVotingOpened         = "voting_opened"
	EventDecisionFixed        = "decision_fixed"
	EventSubmissionAccepted   = "submission_accepted"
	EventSubmissionRejected   = "submission_rejected"
	EventSubmissionWithdrawn  = "submission_withdrawn"
	EventResubmissionReceived = "resubmission_received"
)

// Audience values recognised in notification_message.send_to.
const (
	SendToAuthor  = "author"
	SendToEIC     = "eic"
	SendToAdmins  = "admins"
	SendToReferee = "referee"
)

// NotificationService resolves templates, writes in-app notification rows
// and sends mail. Delivery is fire-and-forget, at-least-once: callers
// dispatch after their transaction has committed, failures are logged and
// never propagated into the workflow.
type NotificationService struct {
	db       *gorm.DB
	sendMail func(to []string, subject, html string) error
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, sendMail: config.SendMail}
}

func fetchNotificationTemplate(db *gorm.DB, eventKey, sendTo string) (*models.NotificationMessage, error) {
	var tmpl models.NotificationMessage
	if err := db.Where("event_key = ? AND send_to = ? AND is_active = 1", eventKey, sendTo).
		First(&tmpl).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func applyTemplatePlaceholders(text string, data map[string]string) string {
	result := text
	for key, value := range data {
		placeholder := "{{" + key + "}}"
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

type templatedMessage struct {
	Title string
	Body  string
}

func (n *NotificationService) buildMessage(eventKey, sendTo string, data map[string]string) (templatedMessage, error) {
	tmpl, err := fetchNotificationTemplate(n.db, eventKey, sendTo)
	if err != nil {
		return templatedMessage{}, fmt.Errorf("notification template missing for event %s -> %s", eventKey, sendTo)
	}
	return templatedMessage{
		Title: applyTemplatePlaceholders(tmpl.TitleTemplate, data),
		Body:  applyTemplatePlaceholders(tmpl.BodyTemplate, data),
	}, nil
}

// Dispatch notifies every audience that has an active template for the
// event: the submitting author, the editor-in-charge and the editorial
// admins, resolved from the submission row. Referee-directed events go
// through NotifyInvitee instead (the recipient is not derivable from the
// submission).
func (n *NotificationService) Dispatch(eventKey string, submissionID int, data map[string]string) {
	var sub models.Submission
	if err := n.db.Where("submission_id = ?", submissionID).First(&sub).Error; err != nil {
		log.Printf("notification dispatch skipped (event=%s submission=%d): %v", eventKey, submissionID, err)
		return
	}

	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["title"]; !ok {
		data["title"] = sub.Title
	}
	data["base_url"] = appBaseURL()

	audiences := map[string][]int{
		SendToAuthor: {sub.SubmittedBy},
		SendToAdmins: n.adminIDs(),
	}
	if sub.EditorInChargeID != nil {
		audiences[SendToEIC] = []int{*sub.EditorInChargeID}
	}

	for sendTo, userIDs := range audiences {
		msg, err := n.buildMessage(eventKey, sendTo, data)
		if err != nil {
			// not every event has a template for every audience
			continue
		}
		for _, uid := range userIDs {
			n.deliver(uid, msg, submissionID)
		}
	}
}

// NotifyInvitee delivers an invitation-related message to the invited
// referee, registered or not.
func (n *NotificationService) NotifyInvitee(eventKey string, inv *models.RefereeInvitation, data map[string]string) {
	if data == nil {
		data = map[string]string{}
	}
	data["base_url"] = appBaseURL()
	data["referee"] = inv.RefereeDisplay()

	msg, err := n.buildMessage(eventKey, SendToReferee, data)
	if err != nil {
		log.Printf("notification template missing (event=%s): %v", eventKey, err)
		return
	}

	if inv.RefereeID != nil {
		n.deliver(*inv.RefereeID, msg, inv.SubmissionID)
		return
	}
	if inv.ContactEmail != nil {
		name := ""
		if inv.ContactName != nil {
			name = *inv.ContactName
		}
		go n.sendMailSafe([]string{*inv.ContactEmail}, msg.Title,
			buildFormalEmailHTML(msg.Title, name, msg.Body))
	}
}

// deliver writes the in-app row and mails the recipient.
func (n *NotificationService) deliver(userID int, msg templatedMessage, submissionID int) {
	related := uint(submissionID)
	row := models.Notification{
		UserID:              uint(userID),
		Title:               msg.Title,
		Message:             msg.Body,
		Type:                "info",
		RelatedSubmissionID: &related,
		IsRead:              false,
		CreateAt:            time.Now(),
	}
	if err := n.db.Create(&row).Error; err != nil {
		log.Printf("notification insert failed (user=%d): %v", userID, err)
	}

	var user models.User
	if err := n.db.Select("user_id, email, prefix, user_fname, user_lname").
		First(&user, "user_id = ? AND delete_at IS NULL", userID).Error; err != nil {
		return
	}
	if user.Email == "" {
		return
	}
	go n.sendMailSafe([]string{user.Email}, msg.Title,
		buildFormalEmailHTML(msg.Title, user.DisplayName(), msg.Body))
}

func (n *NotificationService) adminIDs() []int {
	var rows []models.User
	ids := []int{}
	if err := n.db.Select("user_id").
		Where("role_id = ? AND delete_at IS NULL", models.RoleAdmin).
		Find(&rows).Error; err != nil {
		return ids
	}
	for _, u := range rows {
		ids = append(ids, u.UserID)
	}
	return ids
}

func (n *NotificationService) sendMailSafe(to []string, subject, html string) {
	if err := n.sendMail(to, subject, html); err != nil {
		log.Printf("notification email send failed (subject=%q to=%v): %v", subject, to, err)
	}
}

func appBaseURL() string {
	raw := strings.TrimSpace(os.Getenv("APP_BASE_URL"))
	if raw == "" {
		return ""
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

func buildFormalEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Colleague"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
