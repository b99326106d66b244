package routes

import (
	"editorial-workflow-api/controllers"
	"editorial-workflow-api/middleware"
	"editorial-workflow-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Unregistered referees answer invitations through their token
			public.POST("/invitations/answer/:token", controllers.AnswerInvitationByToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Editorial Workflow API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/profile", controllers.UpdateProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.GetPool)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.POST("", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.CreateSubmission)
				submissions.POST("/:id/resubmission", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.CreateResubmission)

				// Editor-in-charge workflow
				submissions.GET("/:id/required-actions", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.GetRequiredActions)
				submissions.PUT("/:id/cycle", middleware.RequireRole(models.RoleFellow), controllers.ChooseCycle)
				submissions.PUT("/:id/deadline/reset", middleware.RequireRole(models.RoleFellow), controllers.ResetReportingDeadline)
				submissions.PUT("/:id/close-refereeing", middleware.RequireRole(models.RoleFellow), controllers.CloseRefereeingRound)

				// Admin operations
				submissions.PUT("/:id/withdraw", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.WithdrawSubmission)
				submissions.PUT("/:id/published", middleware.RequireRole(models.RoleAdmin), controllers.MarkPublished)
				submissions.PUT("/:id/fail-pre-screening", middleware.RequireRole(models.RoleAdmin), controllers.FailPreScreening)

				// Editorial assignments for one submission
				submissions.GET("/:id/assignments", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.GetSubmissionAssignments)
				submissions.POST("/:id/assignments", middleware.RequireRole(models.RoleAdmin), controllers.OfferAssignment)

				// Referee invitations for one submission
				submissions.GET("/:id/invitations", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.GetSubmissionInvitations)
				submissions.POST("/:id/invitations", middleware.RequireRole(models.RoleFellow), controllers.InviteReferee)
				submissions.POST("/:id/invitations/reinvite", middleware.RequireRole(models.RoleFellow), controllers.ReinviteReferees)

				// Reports and comments on one submission
				submissions.GET("/:id/reports", controllers.GetSubmissionReports)

				// Recommendation lifecycle anchored on the submission
				submissions.GET("/:id/recommendation", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.GetActiveRecommendation)
				submissions.POST("/:id/recommendation", middleware.RequireRole(models.RoleFellow), controllers.FormulateRecommendation)
				submissions.PUT("/:id/tiering", middleware.RequireRole(models.RoleAdmin), controllers.CorrectTiering)
			}

			// Editorial assignment offers
			assignments := protected.Group("/assignments")
			assignments.Use(middleware.RequireRole(models.RoleFellow, models.RoleAdmin))
			{
				assignments.GET("/mine", controllers.GetMyAssignmentOffers)
				assignments.PUT("/:id/accept", controllers.AcceptAssignment)
				assignments.PUT("/:id/decline", controllers.DeclineAssignment)
			}

			// Referee invitations addressed to registered users
			invitations := protected.Group("/invitations")
			{
				invitations.PUT("/:id/accept", controllers.AcceptInvitation)
				invitations.PUT("/:id/decline", controllers.DeclineInvitation)
				invitations.PUT("/:id/cancel", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.CancelInvitation)
				invitations.POST("/:id/reminder", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.SendInvitationReminder)
			}

			// Referee reports
			reports := protected.Group("/reports")
			{
				reports.POST("/draft", controllers.SaveReportDraft)
				reports.PUT("/:id/submit", controllers.SubmitReport)
				reports.PUT("/:id/vet", middleware.RequireRole(models.RoleFellow), controllers.VetReport)
			}

			// Comments
			comments := protected.Group("/comments")
			{
				comments.POST("", controllers.CreateComment)
				comments.PUT("/:id/vet", middleware.RequireRole(models.RoleFellow), controllers.VetComment)
			}

			// Voting on recommendations
			recommendations := protected.Group("/recommendations")
			{
				recommendations.POST("/:id/voters", middleware.RequireRole(models.RoleAdmin), controllers.AddEligibleVoter)
				recommendations.PUT("/:id/put-to-voting", middleware.RequireRole(models.RoleAdmin), controllers.PutToVoting)
				recommendations.POST("/:id/votes", middleware.RequireRole(models.RoleFellow), controllers.CastVote)
				recommendations.GET("/:id/tally", middleware.RequireRole(models.RoleFellow, models.RoleAdmin), controllers.GetVoteTally)
				recommendations.PUT("/:id/fix", middleware.RequireRole(models.RoleAdmin), controllers.FixDecision)
			}
		}
	}
}
