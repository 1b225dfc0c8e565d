// Package handler maps HTTP requests onto the services and renders JSON.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/render"
	"github.com/nzoschke/apartments/internal/service"
)

const maxBodyBytes = 1 << 20

var errNotFound = &service.Error{Code: "not_found", Status: http.StatusNotFound, Message: "Not found"}

func NotFound(w http.ResponseWriter, r *http.Request) {
	render.Error(w, r, errNotFound)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil {
		return service.ErrInvalidBody.Wrap(err)
	}
	return nil
}

// registered is the public user plus the invitation token, as returned on signup.
func registered(reg *service.Registration) *model.PublicUser {
	public := reg.User.Public()
	if reg.User.InvitationToken != nil {
		public.InvitationToken = *reg.User.InvitationToken
	}
	return public
}
