package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/admin-service/internal/auth"
	"github.com/spec-kit/admin-service/internal/domain"
	"github.com/spec-kit/admin-service/internal/repository"
	"github.com/spec-kit/admin-service/internal/reqctx"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

// ProfileInfo is the current caller's account summary with effective
// grants.
type ProfileInfo struct {
	User        ProfileUser `json:"user"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
}

// ProfileUser is the externally visible slice of the account.
type ProfileUser struct {
	PublicID string `json:"publicId"`
	Name     string `json:"name"`
	Account  string `json:"account"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Sex      string `json:"sex"`
	Status   string `json:"status"`
}

// RouterNode is one entry in the caller's navigation tree.
type RouterNode struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Children []*RouterNode `json:"children"`
}

// ProfileService answers "who am I" using the request scope's subject id.
type ProfileService struct {
	users    repository.UserRepository
	menus    repository.MenuRepository
	resolver *auth.PermissionResolver
}

// NewProfileService builds the service.
func NewProfileService(users repository.UserRepository, menus repository.MenuRepository, resolver *auth.PermissionResolver) *ProfileService {
	return &ProfileService{users: users, menus: menus, resolver: resolver}
}

// GetInfo loads the account identified by the request scope together with
// its role keys and resolved permissions.
func (s *ProfileService) GetInfo(ctx context.Context) (*ProfileInfo, error) {
	publicID := reqctx.From(ctx).UserPublicID()
	if publicID == "" {
		return nil, apperrors.NewUnauthenticated("not authenticated")
	}

	user, err := s.users.GetByPublicIDWithRoles(ctx, publicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("not authenticated")
		}
		return nil, apperrors.MapError(err)
	}

	grants, err := s.resolver.Resolve(ctx, user.Roles)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &ProfileInfo{
		User: ProfileUser{
			PublicID: user.PublicID,
			Name:     user.Name,
			Account:  user.Account,
			Email:    user.Email,
			Avatar:   user.Avatar,
			Sex:      user.Sex,
			Status:   string(user.Status),
		},
		Roles:       grants.RoleKeys,
		Permissions: grants.Permissions,
	}, nil
}

// GetRouters returns the caller's navigation tree: the enabled menus
// reachable through the caller's roles, folded by parent id. An admin sees
// every enabled menu without a role join.
func (s *ProfileService) GetRouters(ctx context.Context) ([]*RouterNode, error) {
	publicID := reqctx.From(ctx).UserPublicID()
	if publicID == "" {
		return nil, apperrors.NewUnauthenticated("not authenticated")
	}

	user, err := s.users.GetByPublicIDWithRoles(ctx, publicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("not authenticated")
		}
		return nil, apperrors.MapError(err)
	}

	isAdmin := false
	roleIDs := make([]int64, 0, len(user.Roles))
	for _, role := range user.Roles {
		if role.RoleKey == domain.AdminRoleKey {
			isAdmin = true
		}
		roleIDs = append(roleIDs, role.ID)
	}

	var menus []domain.Menu
	switch {
	case isAdmin:
		menus, err = s.menus.ListEnabled(ctx)
	case len(roleIDs) > 0:
		menus, err = s.menus.ListEnabledByRoleIDs(ctx, roleIDs)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return buildMenuTree(menus), nil
}

// buildMenuTree folds flat menu rows into a parent/child tree, keeping the
// input order. A row whose parent is absent from the grant is promoted to a
// root, so a partial grant still renders.
func buildMenuTree(menus []domain.Menu) []*RouterNode {
	nodes := make(map[int64]*RouterNode, len(menus))
	for _, menu := range menus {
		nodes[menu.ID] = &RouterNode{Name: menu.Name, Path: menu.Path, Children: []*RouterNode{}}
	}

	roots := []*RouterNode{}
	for _, menu := range menus {
		node := nodes[menu.ID]
		if parent, ok := nodes[menu.ParentID]; ok && menu.ParentID != menu.ID {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}
