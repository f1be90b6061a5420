package auth

import (
	"blogicum/internal/logger"
	"fmt"

	"github.com/casbin/casbin/v2"
)

// DefaultPolicies are the route permissions of the blog.
var DefaultPolicies = [][]string{
	// Anonymous readers browse feeds and posts and can sign in.
	{RoleAnonymous, "/", "GET"},
	{RoleAnonymous, "/category/:slug/", "GET"},
	{RoleAnonymous, "/profile/:username/", "GET"},
	{RoleAnonymous, "/posts/:id/", "GET"},
	{RoleAnonymous, "/auth/login", "GET"},
	{RoleAnonymous, "/auth/login", "POST"},
	{RoleAnonymous, "/auth/register", "GET"},
	{RoleAnonymous, "/auth/register", "POST"},
	{RoleAnonymous, "/auth/oidc/login", "GET"},
	{RoleAnonymous, "/auth/oidc/callback", "GET"},

	// Authors write posts and comments and manage their profile.
	{RoleAuthor, "/posts/create/", "GET"},
	{RoleAuthor, "/posts/create/", "POST"},
	{RoleAuthor, "/posts/:id/edit/", "GET"},
	{RoleAuthor, "/posts/:id/edit/", "POST"},
	{RoleAuthor, "/posts/:id/delete/", "GET"},
	{RoleAuthor, "/posts/:id/delete/", "POST"},
	{RoleAuthor, "/posts/:id/comment/", "POST"},
	{RoleAuthor, "/posts/:id/edit_comment/:cid/", "GET"},
	{RoleAuthor, "/posts/:id/edit_comment/:cid/", "POST"},
	{RoleAuthor, "/posts/:id/delete_comment/:cid/", "GET"},
	{RoleAuthor, "/posts/:id/delete_comment/:cid/", "POST"},
	{RoleAuthor, "/profile/edit/", "GET"},
	{RoleAuthor, "/profile/edit/", "POST"},
	{RoleAuthor, "/auth/logout", "POST"},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	// Authors can do everything anonymous users can.
	if has, _ := e.HasRoleForUser(RoleAuthor, RoleAnonymous); !has {
		if _, err := e.AddRoleForUser(RoleAuthor, RoleAnonymous); err != nil {
			log.Error(err, "Failed to add role 'author' -> 'anonymous'")
		}
	}
	log.Info("Policy seeding complete.")
}
