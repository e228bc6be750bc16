package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/pairup/backend/internal/logger"
	"github.com/pairup/backend/internal/validation"
)

// Visibility says which profile documents receive a field.
type Visibility int

const (
	// PrivateOnly fields are written to users/{id} only.
	PrivateOnly Visibility = iota
	// Public fields are mirrored into users/{id} and publicProfiles/{id}.
	Public
)

type FieldRoute struct {
	Visibility Visibility
	// Immutable fields are set at creation and dropped from every later update.
	Immutable bool
	// ServerManaged fields are written by the photo pipeline, never by clients.
	ServerManaged bool
}

// FieldRoutes is the allow-list of profile fields. Anything else is rejected.
var FieldRoutes = map[string]FieldRoute{
	"firstName": {Visibility: Public},
	"lastName":  {Visibility: Public},
	"photoURL":  {Visibility: Public, ServerManaged: true},
	"city":      {Visibility: Public},
	"bio":       {Visibility: Public},
	"gender":    {Visibility: Public},

	"email":       {Visibility: PrivateOnly, Immutable: true},
	"createdAt":   {Visibility: PrivateOnly, Immutable: true},
	"birthDate":   {Visibility: PrivateOnly},
	"preferences": {Visibility: PrivateOnly},
	"funFact":     {Visibility: PrivateOnly},
	"likes":       {Visibility: PrivateOnly},
	"dislikes":    {Visibility: PrivateOnly},
	"hobbies":     {Visibility: PrivateOnly},
}

// SplitUserUpdates routes one flat profile update into the private and public
// documents. Every key in public is also in private with the same value. Keys
// missing from FieldRoutes are dropped.
func SplitUserUpdates(updates map[string]any) (private, public map[string]any) {
	private = make(map[string]any)
	public = make(map[string]any)

	for key, value := range updates {
		if value == nil {
			continue
		}
		route, known := FieldRoutes[key]
		if !known {
			logger.Warn("Dropping unknown profile field", zap.String("field", key))
			continue
		}
		if route.Immutable {
			logger.Warn("Dropping update to immutable profile field", zap.String("field", key))
			continue
		}
		private[key] = value
		if route.Visibility == Public {
			public[key] = value
		}
	}
	return private, public
}

// checkClientKeys names every key a client may not write. publicOnly restricts
// the allowed set to fields that live on the public document.
func checkClientKeys(updates map[string]any, publicOnly bool) error {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs validation.ValidationErrors
	for _, k := range keys {
		route, known := FieldRoutes[k]
		switch {
		case k == "age":
			errs = append(errs, "age: is derived from birthDate")
		case !known:
			errs = append(errs, k+": is not a profile field")
		case route.ServerManaged:
			errs = append(errs, k+": is set by photo upload")
		case publicOnly && route.Visibility != Public:
			errs = append(errs, k+": is not a public profile field")
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
