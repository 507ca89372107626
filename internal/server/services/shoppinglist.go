package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/dbx"
	"sharedshoppinglist/internal/logging"
	"sharedshoppinglist/internal/server/cache"
	"sharedshoppinglist/internal/server/models"
	"sharedshoppinglist/internal/server/repositories/repomanager"
)

const maxListNameLength = 20

// ShoppingListService implements list management: overview, create, join by
// share code, leave, rename, member listing, and settlement export.
type ShoppingListService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       *cache.ListCache
	log         logging.Logger
}

func NewShoppingListService(db *sql.DB, m repomanager.RepositoryManager, c *cache.ListCache, log logging.Logger) *ShoppingListService {
	return &ShoppingListService{db: db, repomanager: m, cache: c, log: log}
}

// GetAllForUser returns the overview rows for every list the user belongs to,
// serving from the cache when it is warm.
func (s *ShoppingListService) GetAllForUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	if lists, ok := s.cache.Get(ctx, userID); ok {
		return lists, nil
	}

	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	lists, err := s.repomanager.ShoppingLists(s.db).ListForUser(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "list overview query failed", "error", err)
		return nil, common.ErrorInternal
	}
	s.cache.Set(ctx, userID, lists)
	return lists, nil
}

// Create makes a new list owned by userID, generates its share code, and
// enrolls the owner as the first member.
func (s *ShoppingListService) Create(ctx context.Context, userID int64, name string) (*models.ShoppingListSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxListNameLength {
		return nil, fmt.Errorf("%w: list name must be 1-%d characters", common.ErrInvalidArgument, maxListNameLength)
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	var listID int64
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		listRepo := s.repomanager.ShoppingLists(tx)

		list, err := listRepo.Create(ctx, &models.ShoppingList{
			Name:            name,
			CreatedByUserID: userID,
			CreatedAt:       time.Now(),
		})
		if err != nil {
			return err
		}
		listID = list.ID

		code, err := makeShareCode(userID, list.ID)
		if err != nil {
			return err
		}
		if err := listRepo.SetShareCode(ctx, list.ID, code); err != nil {
			return err
		}

		return listRepo.AddMember(ctx, &models.Membership{
			UserID:         userID,
			ShoppingListID: list.ID,
			JoinedAt:       time.Now(),
		})
	}); err != nil {
		s.log.Error(ctx, "list creation failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.cache.Invalidate(ctx, userID)
	return s.summary(ctx, listID)
}

// Join enrolls userID into the list behind shareCode. A previous membership
// that was deactivated by leaving is revived instead of duplicated, and a
// list emptied out by its last member comes back when someone joins it again.
func (s *ShoppingListService) Join(ctx context.Context, userID int64, shareCode string) (*models.ShoppingListSummary, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}

	listRepo := s.repomanager.ShoppingLists(s.db)
	list, err := listRepo.GetByShareCode(ctx, shareCode)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: shopping list", common.ErrorNotFound)
		}
		s.log.Error(ctx, "share code lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !list.IsActive {
		if err := listRepo.SetActive(ctx, list.ID, true); err != nil {
			s.log.Error(ctx, "list revival failed", "error", err)
			return nil, common.ErrorInternal
		}
	}

	membership, err := listRepo.FindMembership(ctx, list.ID, userID)
	switch {
	case err == nil && membership.IsActive:
		return nil, fmt.Errorf("%w: already a member of this shopping list", common.ErrInvalidArgument)
	case err == nil:
		if err := listRepo.SetMembershipActive(ctx, membership.ID, true); err != nil {
			s.log.Error(ctx, "membership revival failed", "error", err)
			return nil, common.ErrorInternal
		}
	case errors.Is(err, common.ErrorNotFound):
		if err := listRepo.AddMember(ctx, &models.Membership{
			UserID:         userID,
			ShoppingListID: list.ID,
			JoinedAt:       time.Now(),
		}); err != nil {
			s.log.Error(ctx, "membership insert failed", "error", err)
			return nil, common.ErrorInternal
		}
	default:
		s.log.Error(ctx, "membership lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.cache.Invalidate(ctx, userID)
	return s.summary(ctx, list.ID)
}

// Leave deactivates the membership and the member's unbought products. The
// last member out deactivates the list itself.
func (s *ShoppingListService) Leave(ctx context.Context, userID, listID int64) error {
	listRepo := s.repomanager.ShoppingLists(s.db)
	membership, err := listRepo.FindMembership(ctx, listID, userID)
	if err != nil || !membership.IsActive {
		return fmt.Errorf("%w: not a member of this shopping list", common.ErrInvalidArgument)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txLists := s.repomanager.ShoppingLists(tx)

		if err := txLists.SetMembershipActive(ctx, membership.ID, false); err != nil {
			return err
		}
		if err := s.repomanager.Products(tx).DeactivateForUserAndList(ctx, userID, listID); err != nil {
			return err
		}

		remaining, err := txLists.ActiveMemberCount(ctx, listID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return txLists.SetActive(ctx, listID, false)
		}
		return nil
	}); err != nil {
		s.log.Error(ctx, "leaving list failed", "error", err)
		return common.ErrorInternal
	}

	s.cache.Invalidate(ctx, userID)
	return nil
}

// Rename changes a list's name.
func (s *ShoppingListService) Rename(ctx context.Context, listID int64, name string) (*models.ShoppingListSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxListNameLength {
		return nil, fmt.Errorf("%w: list name must be 1-%d characters", common.ErrInvalidArgument, maxListNameLength)
	}

	listRepo := s.repomanager.ShoppingLists(s.db)
	if _, err := listRepo.GetActiveByID(ctx, listID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: shopping list", common.ErrorNotFound)
		}
		s.log.Error(ctx, "list lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if err := listRepo.Rename(ctx, listID, name); err != nil {
		s.log.Error(ctx, "list rename failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.invalidateMembers(ctx, listID)
	return s.summary(ctx, listID)
}

// GetMembers returns the active members of a list.
func (s *ShoppingListService) GetMembers(ctx context.Context, listID int64) ([]models.Member, error) {
	listRepo := s.repomanager.ShoppingLists(s.db)
	if _, err := listRepo.GetActiveByID(ctx, listID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: shopping list", common.ErrorNotFound)
		}
		s.log.Error(ctx, "list lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	members, err := listRepo.Members(ctx, listID)
	if err != nil {
		s.log.Error(ctx, "member query failed", "error", err)
		return nil, common.ErrorInternal
	}
	return members, nil
}

// IsActiveMember reports whether the user currently belongs to the list. The
// HTTP layer uses it to guard list and product routes.
func (s *ShoppingListService) IsActiveMember(ctx context.Context, listID, userID int64) (bool, error) {
	member, err := s.repomanager.ShoppingLists(s.db).IsActiveMember(ctx, listID, userID)
	if err != nil {
		s.log.Error(ctx, "membership check failed", "error", err)
		return false, common.ErrorInternal
	}
	return member, nil
}

// Export computes each member's settlement balance over products bought in
// the window, bounds inclusive. Shared products are split evenly across the
// current active members; personal products are owed by the adder to the
// buyer. All divisions are integer divisions in minor currency units.
func (s *ShoppingListService) Export(ctx context.Context, listID int64, from, to time.Time) ([]models.ExportEntry, error) {
	members, err := s.GetMembers(ctx, listID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []models.ExportEntry{}, nil
	}

	bought, err := s.repomanager.Products(s.db).BoughtBetween(ctx, listID, from, to)
	if err != nil {
		s.log.Error(ctx, "export query failed", "error", err)
		return nil, common.ErrorInternal
	}

	entries := settle(members, bought)
	sort.Slice(entries, func(i, j int) bool { return entries[i].FirstName < entries[j].FirstName })
	return entries, nil
}

// settle distributes product costs across members. For every member:
// money spent covers personal purchases for others plus their share of the
// shared products they bought; money spent on them covers their share of
// shared products others bought plus personal products others bought for
// them. The balance is the difference.
func settle(members []models.Member, bought []models.Product) []models.ExportEntry {
	n := int64(len(members))
	entries := make([]models.ExportEntry, 0, len(members))

	for _, member := range members {
		var spentOnOthers, othersSpentOnMe int64
		var addedNotBought, boughtNotAdded, addedAndBought, othersOnly int64

		for _, p := range bought {
			if !p.IsBought() {
				continue
			}
			buyer := p.BoughtByUserID.Int64
			adder := p.AddedByUserID

			if !p.IsShared {
				if buyer == member.UserID && adder != member.UserID {
					spentOnOthers += p.Price
				}
				if buyer != member.UserID && adder == member.UserID {
					othersSpentOnMe += p.Price
				}
				continue
			}

			switch {
			case adder == member.UserID && buyer == member.UserID:
				addedAndBought += p.Price
			case adder == member.UserID:
				addedNotBought += p.Price
			case buyer == member.UserID:
				boughtNotAdded += p.Price
			default:
				othersOnly += p.Price
			}
		}

		moneySpent := spentOnOthers + boughtNotAdded/n*(n-1) + addedAndBought/n*(n-1)
		moneySpentOnMe := addedNotBought/n + othersOnly/n + othersSpentOnMe

		entries = append(entries, models.ExportEntry{
			UserID:    member.UserID,
			FirstName: member.FirstName,
			LastName:  member.LastName,
			Money:     moneySpent - moneySpentOnMe,
		})
	}
	return entries
}

func (s *ShoppingListService) activeUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

func (s *ShoppingListService) summary(ctx context.Context, listID int64) (*models.ShoppingListSummary, error) {
	summary, err := s.repomanager.ShoppingLists(s.db).Summary(ctx, listID)
	if err != nil {
		s.log.Error(ctx, "list summary query failed", "error", err)
		return nil, common.ErrorInternal
	}
	return summary, nil
}

func (s *ShoppingListService) invalidateMembers(ctx context.Context, listID int64) {
	if !s.cache.Enabled() {
		return
	}
	ids, err := s.repomanager.ShoppingLists(s.db).MemberIDs(ctx, listID)
	if err != nil {
		s.log.Warn(ctx, "cache invalidation skipped", "error", err)
		return
	}
	s.cache.Invalidate(ctx, ids...)
}

// makeShareCode builds the join code handed out for a new list, e.g.
// "SSLU00007L00003RA1B2C".
func makeShareCode(userID, listID int64) (string, error) {
	suffix, err := common.MakeRandString(5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SSLU%05dL%05dR%s", userID, listID, suffix), nil
}
