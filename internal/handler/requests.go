package handler

type registerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Password2  string `json:"password2" validate:"required,eqfield=Password"`
	FirstName  string `json:"first_name" validate:"required,max=150"`
	LastName   string `json:"last_name" validate:"required,max=150"`
	UseCookies bool   `json:"use_cookies"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	UseCookies bool   `json:"use_cookies"`
}

// refresh is optional here: it may arrive in a cookie instead.
type refreshRequest struct {
	Refresh    string `json:"refresh"`
	UseCookies bool   `json:"use_cookies"`
}

type changePasswordRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}

// Pointer fields distinguish "absent" from "set to empty".
type updateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
}
