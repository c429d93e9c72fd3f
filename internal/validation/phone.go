// Package validation содержит функции проверки и нормализации входных данных.
package validation

import (
	"strings"
	"unicode"
)

const (
	// AdminPhone задаёт номер, под которым регистрируется администратор.
	AdminPhone = "0000000000"

	emailDomain = "@astren.com"
	adminEmail  = "admin" + emailDomain
)

// Digits оставляет в номере только цифры.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsAdminPhone сообщает, относится ли номер к администратору.
func IsAdminPhone(phone string) bool {
	return Digits(phone) == AdminPhone
}

// IsValidPhone проверяет, что в номере есть хотя бы девять цифр.
func IsValidPhone(phone string) bool {
	return len(Digits(phone)) >= 9
}

// SyntheticEmail превращает номер телефона в адрес для провайдера аутентификации.
// Саудовские мобильные номера (последние девять цифр начинаются с 5) приводятся
// к виду 9665XXXXXXXX, чтобы 05..., 5..., +9665... давали один адрес.
func SyntheticEmail(phone string) string {
	digits := Digits(phone)

	if digits == AdminPhone {
		return adminEmail
	}

	if len(digits) >= 9 {
		core := digits[len(digits)-9:]
		if strings.HasPrefix(core, "5") {
			return "966" + core + emailDomain
		}
	}

	return digits + emailDomain
}

// PhoneFromEmail восстанавливает идентификатор номера из синтетического адреса.
func PhoneFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
