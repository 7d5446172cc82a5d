package service

import (
	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
	apperrors "github.com/rowhq/fieldproof/internal/errors"
)

func requireAdmin(sess domainauth.Session) error {
	if !sess.IsAdmin() {
		return apperrors.Forbidden("Administrator access is required.")
	}
	return nil
}

func requireAppraiser(sess domainauth.Session) error {
	if sess.IsAdmin() {
		return apperrors.Forbidden("This operation is for appraisers.")
	}
	if !sess.IsAppraiser() {
		return apperrors.Forbidden("An appraiser profile is required.")
	}
	return nil
}
