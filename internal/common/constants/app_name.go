package constants

const (
	APP_STOREFRONT_SERVICE = "storefront-service"
	APP_PROFILE_CLIENT     = "profile-client"
	APP_MAIN_STOREFRONT    = "main storefront"
	AUDIENCE_USER          = "audience-user"
	ISSUER_USER_SERVICE    = "user-service"
)
