package i18n

var enUS = map[string]string{
	KeyValidationFailed:   "Invalid request",
	KeyUserExists:         "User already exists",
	KeySignupFailed:       "Could not sign up, please try again",
	KeyConfirmationFailed: "Could not confirm the account, please try again",
	KeyLoginFailed:        "Incorrect email or password",
	KeySetupMFAFailed:     "Could not set up MFA, please try again",
	KeyInvalidCode:        "Invalid code, please try again",
	KeySessionExpired:     "Session expired, please try again",
	KeyResendFailed:       "Could not resend the confirmation code",
	KeyResetFailed:        "Could not reset the password, please try again",

	ResetKey("CodeMismatchException"):    "Invalid code, please try again",
	ResetKey("ExpiredCodeException"):     "Code expired, please request a new one",
	ResetKey("InvalidPasswordException"): "Password does not meet the requirements",
	ResetKey("LimitExceededException"):   "Too many attempts, please try again later",
	ResetKey("TooManyRequestsException"): "Too many attempts, please try again later",
	ResetKey("UserNotFoundException"):    "User not found",
	ResetKey("NotAuthorizedException"):   "Password reset is not allowed for this user",
}

var es = map[string]string{
	KeyValidationFailed:   "Solicitud no válida",
	KeyUserExists:         "El usuario ya existe",
	KeySignupFailed:       "No se pudo completar el registro, inténtalo de nuevo",
	KeyConfirmationFailed: "No se pudo confirmar la cuenta, inténtalo de nuevo",
	KeyLoginFailed:        "Correo o contraseña incorrectos",
	KeySetupMFAFailed:     "No se pudo configurar MFA, inténtalo de nuevo",
	KeyInvalidCode:        "Código no válido, inténtalo de nuevo",
	KeySessionExpired:     "La sesión expiró, inténtalo de nuevo",
	KeyResendFailed:       "No se pudo reenviar el código de confirmación",
	KeyResetFailed:        "No se pudo restablecer la contraseña, inténtalo de nuevo",

	ResetKey("CodeMismatchException"):    "Código no válido, inténtalo de nuevo",
	ResetKey("ExpiredCodeException"):     "El código expiró, solicita uno nuevo",
	ResetKey("InvalidPasswordException"): "La contraseña no cumple los requisitos",
	ResetKey("LimitExceededException"):   "Demasiados intentos, inténtalo más tarde",
	ResetKey("TooManyRequestsException"): "Demasiados intentos, inténtalo más tarde",
	ResetKey("UserNotFoundException"):    "Usuario no encontrado",
	ResetKey("NotAuthorizedException"):   "No se permite restablecer la contraseña de este usuario",
}
