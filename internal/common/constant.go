package common

const (
	// AuthorizationHeader carries "Bearer <access token>" on every sync call.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// PhotoFormField is the multipart field name of POST /photos.
	PhotoFormField = "image"
)
