package api

import (
	"context"

	"github.com/praxisos/praxis-server/internal/errors"
	"github.com/praxisos/praxis-server/internal/pipeline"
	"github.com/praxisos/praxis-server/internal/store"
)

// minInviteTokenLength rejects obviously truncated invite links before any
// store lookup.
const minInviteTokenLength = 24

func inviteToken(req *pipeline.Request) (string, error) {
	token := pathVar(req, "token")
	if len(token) < minInviteTokenLength {
		return "", errors.BadRequest("Ungültiger Einladungslink.")
	}
	return token, nil
}

func inviteBody(inv *store.Invite) map[string]string {
	return map[string]string{
		"vorname":  inv.Vorname,
		"nachname": inv.Nachname,
		"email":    inv.Email,
	}
}

func (s *Server) inviteLookupOp() pipeline.Operation {
	return pipeline.Operation{
		Name:   "invites.lookup",
		Public: true,
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			token, err := inviteToken(req)
			if err != nil {
				return nil, err
			}

			invite, err := s.store.InviteByTokenHash(ctx, store.HashInviteToken(token))
			if err != nil {
				return nil, errors.Upstream(err)
			}
			if invite == nil {
				return nil, errors.NotFound("Einladung nicht gefunden.")
			}
			if invite.VerwendetAm != nil {
				return nil, errors.AlreadyConsumed("Einladung wurde bereits verwendet.")
			}
			return pipeline.OK(inviteBody(invite)), nil
		},
	}
}

func (s *Server) inviteAcceptOp() pipeline.Operation {
	return pipeline.Operation{
		Name:   "invites.accept",
		Public: true,
		Handle: func(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error) {
			token, err := inviteToken(req)
			if err != nil {
				return nil, err
			}
			hash := store.HashInviteToken(token)

			// The consume is conditioned on the invite being unused, so two
			// concurrent accepts cannot both win.
			invite, consumed, err := s.store.ConsumeInvite(ctx, hash)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			if consumed {
				return pipeline.OK(inviteBody(invite)), nil
			}

			// Zero rows: either the invite never existed or it was already
			// used; a second lookup tells the two apart.
			existing, err := s.store.InviteByTokenHash(ctx, hash)
			if err != nil {
				return nil, errors.Upstream(err)
			}
			if existing == nil {
				return nil, errors.NotFound("Einladung nicht gefunden.")
			}
			return nil, errors.AlreadyConsumed("Einladung wurde bereits verwendet.")
		},
	}
}
