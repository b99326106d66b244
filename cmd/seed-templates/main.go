// Seeds the notification_message templates and, if ADMIN_EMAIL and
// ADMIN_PASSWORD are set, an editorial admin account.
package main

import (
	"editorial-workflow-api/config"
	"editorial-workflow-api/models"
	"editorial-workflow-api/services"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type seedTemplate struct {
	EventKey string
	SendTo   string
	Title    string
	Body     string
}

var seedTemplates = []seedTemplate{
	{services.EventAssignmentOffered, services.SendToEIC,
		"Editorial assignment: {{title}}",
		"You have been asked to take charge of the submission \"{{title}}\". Please accept or decline the assignment at {{base_url}}."},
	{services.EventAssignmentAccepted, services.SendToAuthor,
		"An editor has taken charge of your submission",
		"An editor-in-charge has been appointed for your submission \"{{title}}\". Refereeing will now be set in motion."},
	{services.EventAssignmentAccepted, services.SendToAdmins,
		"Assignment accepted: {{title}}",
		"{{editor}} accepted the editorial assignment for \"{{title}}\"."},
	{services.EventAssignmentDeclined, services.SendToAdmins,
		"Assignment declined: {{title}}",
		"The last outstanding editorial assignment for \"{{title}}\" was declined ({{reason}}). Please offer it to another fellow."},
	{services.EventPreScreeningFailed, services.SendToAuthor,
		"Your submission did not pass pre-screening",
		"Your submission \"{{title}}\" could not be assigned to an editor-in-charge and has been removed from the pool. Reason: {{reason}}."},
	{services.EventRefereeInvited, services.SendToReferee,
		"Invitation to referee: {{title}}",
		"Dear {{referee}}, you are invited to referee the submission \"{{title}}\". Please respond by {{deadline}} at {{base_url}}."},
	{services.EventRefereeAccepted, services.SendToEIC,
		"Referee accepted: {{title}}",
		"{{referee}} agreed to referee \"{{title}}\"."},
	{services.EventRefereeDeclined, services.SendToEIC,
		"Referee declined: {{title}}",
		"{{referee}} declined to referee \"{{title}}\" ({{reason}})."},
	{services.EventRefereeReminder, services.SendToReferee,
		"Reminder: invitation to referee {{title}}",
		"Dear {{referee}}, this is a reminder of your pending invitation to referee \"{{title}}\". Please respond at {{base_url}}."},
	{services.EventInvitationCancelled, services.SendToReferee,
		"Invitation withdrawn: {{title}}",
		"Dear {{referee}}, the invitation to referee \"{{title}}\" has been withdrawn. No further action is needed."},
	{services.EventReportSubmitted, services.SendToEIC,
		"New referee report on {{title}}",
		"A referee report has been delivered on \"{{title}}\" and awaits your vetting."},
	{services.EventReportVetted, services.SendToAuthor,
		"A referee report on your submission is available",
		"A vetted referee report on \"{{title}}\" is now visible on the submission page."},
	{services.EventCommentVetted, services.SendToAuthor,
		"A comment on your submission is available",
		"A vetted comment on \"{{title}}\" is now visible on the submission page."},
	{services.EventRecommendationFormed, services.SendToAdmins,
		"Recommendation formulated: {{title}}",
		"The editor-in-charge formulated a recommendation ({{recommendation}}) for \"{{title}}\". Voting preparation can begin."},
	{services.EventVotingOpened, services.SendToAdmins,
		"Voting opened: {{title}}",
		"The recommendation for \"{{title}}\" has been put to the voting fellows."},
	{services.EventDecisionFixed, services.SendToAdmins,
		"Decision fixed: {{title}}",
		"The recommendation for \"{{title}}\" has been fixed as the editorial decision ({{recommendation}})."},
	{services.EventSubmissionAccepted, services.SendToAuthor,
		"Your submission has been accepted",
		"We are pleased to inform you that your submission \"{{title}}\" has been accepted for publication. It has been passed on to production."},
	{services.EventSubmissionRejected, services.SendToAuthor,
		"Decision on your submission",
		"After refereeing and voting, your submission \"{{title}}\" was not accepted for publication."},
	{services.EventSubmissionWithdrawn, services.SendToEIC,
		"Submission withdrawn: {{title}}",
		"The authors have withdrawn \"{{title}}\". All open refereeing tasks have been cancelled."},
	{services.EventSubmissionWithdrawn, services.SendToAdmins,
		"Submission withdrawn: {{title}}",
		"The authors have withdrawn \"{{title}}\"."},
	{services.EventResubmissionReceived, services.SendToEIC,
		"Resubmission received: {{title}}",
		"A revised version of \"{{title}}\" has been submitted. Please choose the refereeing cycle for the new round."},
	{services.EventResubmissionReceived, services.SendToAdmins,
		"Resubmission received: {{title}}",
		"A revised version of \"{{title}}\" has been submitted."},
}

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize database
	config.InitDB()

	seeded := 0
	for _, t := range seedTemplates {
		var existing models.NotificationMessage
		err := config.DB.Where("event_key = ? AND send_to = ?", t.EventKey, t.SendTo).
			First(&existing).Error
		if err == nil {
			continue
		}

		row := models.NotificationMessage{
			EventKey:      t.EventKey,
			SendTo:        t.SendTo,
			TitleTemplate: t.Title,
			BodyTemplate:  t.Body,
			IsActive:      true,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		if err := config.DB.Create(&row).Error; err != nil {
			log.Printf("Failed to seed template %s -> %s: %v", t.EventKey, t.SendTo, err)
			continue
		}
		seeded++
	}
	log.Printf("Seeded %d notification templates", seeded)

	seedAdmin()

	log.Println("Template seeding completed!")
}

func seedAdmin() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("Admin user %s already exists, skipping", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	now := time.Now()
	admin := models.User{
		UserFname: "Editorial",
		UserLname: "Admin",
		Email:     email,
		Password:  string(hash),
		RoleID:    models.RoleAdmin,
		CreateAt:  &now,
	}
	if err := config.DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin user: %v", err)
		return
	}
	log.Printf("Created admin user %s", email)
}
