package main

import (
	"eco-community-server/routes"
	"eco-community-server/services"
	"eco-community-server/storage"
	"eco-community-server/utils"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	chatHub := services.NewChatHub(storage.DB)

	api := app.Party("/api")
	{
		api.Post("/register", routes.Register)
		api.Post("/login", routes.Login)
		api.Post("/logout", accessTokenVerifierMiddleware, routes.Logout)
		api.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

		projects := api.Party("/projects", accessTokenVerifierMiddleware)
		{
			projects.Post("/", routes.CreateProject)
			projects.Get("/", routes.ListProjects)
			projects.Get("/{id:uint}", routes.GetProject)
			projects.Put("/{id:uint}", routes.UpdateProject)
			projects.Delete("/{id:uint}", routes.DeleteProject)
			projects.Post("/{id:uint}/update-status", utils.AdminOnlyMiddleware, routes.UpdateProjectStatus)
		}

		helpRequests := api.Party("/help-requests", accessTokenVerifierMiddleware)
		{
			helpRequests.Post("/", routes.CreateHelpRequest)
			helpRequests.Get("/", routes.ListHelpRequests)
			helpRequests.Get("/{id:uint}", routes.GetHelpRequest)
			helpRequests.Get("/{id:uint}/accepted-amount", routes.GetAcceptedAmount)
			helpRequests.Post("/{id:uint}/update-status", routes.UpdateHelpRequestStatus)
		}

		proposals := api.Party("/proposals", accessTokenVerifierMiddleware, utils.RoleMiddleware("investor"))
		{
			proposals.Post("/{type}", routes.CreateProposal)
			proposals.Get("/{type}", routes.ListInvestorProposals)
			proposals.Get("/{type}/{id:uint}", routes.GetProposal)
			proposals.Patch("/{type}/{id:uint}", routes.UpdateProposal)
			proposals.Delete("/{type}/{id:uint}", routes.DeleteProposal)
		}

		entrepreneur := api.Party("/entrepreneur", accessTokenVerifierMiddleware, utils.RoleMiddleware("entrepreneur"))
		{
			entrepreneur.Get("/proposals", routes.ListEntrepreneurProposals)
			entrepreneur.Patch("/proposals/{type}/{id:uint}", routes.DecideProposalRoute)
		}

		contracts := api.Party("/contracts", accessTokenVerifierMiddleware)
		{
			contracts.Get("/", routes.ListContracts)
			contracts.Get("/{id:uint}/{action}", routes.GetContractDocument)
		}

		collaborations := api.Party("/collaborations", accessTokenVerifierMiddleware)
		{
			collaborations.Get("/", routes.ListCollaborations)
			collaborations.Get("/stats", routes.CollaborationStats)
		}

		conversations := api.Party("/conversations", accessTokenVerifierMiddleware)
		{
			conversations.Get("/", routes.ListConversations)
			conversations.Post("/", routes.StartConversation)
			conversations.Get("/{id:uint}/messages", routes.ListMessages)
			conversations.Post("/{id:uint}/read", routes.MarkMessagesRead)
			conversations.Post("/{id:uint}/typing", routes.Typing)
			conversations.Get("/{id:uint}/typing", routes.ListTyping)
		}

		// Listings are open to every authenticated role; only
		// organizations publish.
		organizationOnly := utils.RoleMiddleware("organization")
		announcements := api.Party("/announcements", accessTokenVerifierMiddleware)
		{
			announcements.Post("/", organizationOnly, routes.CreateAnnouncement)
			announcements.Get("/", routes.ListAnnouncements)
			announcements.Put("/{id:uint}", organizationOnly, routes.UpdateAnnouncement)
			announcements.Delete("/{id:uint}", organizationOnly, routes.DeleteAnnouncement)
		}

		events := api.Party("/events", accessTokenVerifierMiddleware)
		{
			events.Post("/", organizationOnly, routes.CreateEvent)
			events.Get("/", routes.ListEvents)
			events.Put("/{id:uint}", organizationOnly, routes.UpdateEvent)
			events.Delete("/{id:uint}", organizationOnly, routes.DeleteEvent)
		}

		admin := api.Party("/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
		{
			admin.Get("/users", routes.AdminListUsers)
			admin.Get("/users/stats", routes.AdminUserStats)
			admin.Patch("/users/{id:uint}", routes.AdminUpdateUser)
			admin.Delete("/users/{id:uint}", routes.AdminDeleteUser)
		}
	}

	// Websocket clients authenticate via the token query parameter, not the
	// Authorization header, so the chat endpoint sits outside the verifier.
	app.Get("/ws/chat/{id:uint}", routes.ChatSocket(chatHub))

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Println("eco-community server listening on port", port)
	app.Listen(":" + port)
}
