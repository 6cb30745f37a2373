package security

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRegexp   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegexp   = regexp.MustCompile(`^\+?[\d\s\-()]{10,15}$`)
	nameRegexp    = regexp.MustCompile(`^[a-zA-Z\s\-']{2,50}$`)
	priceRegexp   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	jsProtoRegexp = regexp.MustCompile(`(?i)javascript:`)
	onAttrRegexp  = regexp.MustCompile(`(?i)on\w+=`)
	lowerRegexp   = regexp.MustCompile(`[a-z]`)
	upperRegexp   = regexp.MustCompile(`[A-Z]`)
	digitRegexp   = regexp.MustCompile(`\d`)
)

// ValidateEmail valida formato y longitud máxima de un correo.
func ValidateEmail(email string) bool {
	return emailRegexp.MatchString(email) && len(email) <= 254
}

// ValidatePhone valida un número telefónico en formato internacional laxo.
func ValidatePhone(phone string) bool {
	return phoneRegexp.MatchString(phone)
}

// ValidateName valida un nombre visible (letras, espacios, guiones, apóstrofes).
func ValidateName(name string) bool {
	return nameRegexp.MatchString(name)
}

// ValidatePassword exige 8+ caracteres con minúscula, mayúscula y dígito.
func ValidatePassword(password string) bool {
	return len(password) >= 8 &&
		lowerRegexp.MatchString(password) &&
		upperRegexp.MatchString(password) &&
		digitRegexp.MatchString(password)
}

// ValidatePrice acepta decimales con hasta dos cifras en (0, 1_000_000].
func ValidatePrice(price string) bool {
	if !priceRegexp.MatchString(price) {
		return false
	}
	value, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return false
	}
	return value > 0 && value <= 1_000_000
}

// SanitizeText elimina patrones de inyección comunes de texto libre.
func SanitizeText(text string) string {
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	text = jsProtoRegexp.ReplaceAllString(text, "")
	text = onAttrRegexp.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

const maxUploadBytes = 5 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateFileUpload aplica la lista blanca de imágenes y el techo de 5 MB.
func ValidateFileUpload(mimeType string, sizeBytes int64) (bool, string) {
	if !allowedImageTypes[mimeType] {
		return false, "Only JPEG, PNG, and WebP images are allowed"
	}
	if sizeBytes > maxUploadBytes {
		return false, "File size must be less than 5MB"
	}
	return true, ""
}
