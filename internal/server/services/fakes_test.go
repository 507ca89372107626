package services

import (
	"context"
	"sync"
	"time"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/server/models"
)

// In-memory shopping list repository shared by the list and product service
// tests. Member views resolve names through the user fake.
type fakeListRepo struct {
	mu          sync.Mutex
	nextListID  int64
	nextMemID   int64
	lists       map[int64]*models.ShoppingList
	memberships map[int64]*models.Membership
	users       *fakeUserRepo
	products    *fakeProductRepo
}

func newFakeListRepo(users *fakeUserRepo, products *fakeProductRepo) *fakeListRepo {
	return &fakeListRepo{
		lists:       map[int64]*models.ShoppingList{},
		memberships: map[int64]*models.Membership{},
		users:       users,
		products:    products,
	}
}

func (r *fakeListRepo) Create(ctx context.Context, list *models.ShoppingList) (*models.ShoppingList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextListID++
	list.ID = r.nextListID
	list.IsActive = true
	r.lists[list.ID] = list
	return list, nil
}

func (r *fakeListRepo) SetShareCode(ctx context.Context, listID int64, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lists[listID]; ok {
		l.ShareCode = code
	}
	return nil
}

func (r *fakeListRepo) GetActiveByID(ctx context.Context, id int64) (*models.ShoppingList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok || !l.IsActive {
		return nil, common.ErrorNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListRepo) GetByShareCode(ctx context.Context, code string) (*models.ShoppingList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lists {
		if l.ShareCode == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeListRepo) Rename(ctx context.Context, listID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lists[listID]; ok {
		l.Name = name
	}
	return nil
}

func (r *fakeListRepo) SetActive(ctx context.Context, listID int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lists[listID]; ok {
		l.IsActive = active
	}
	return nil
}

func (r *fakeListRepo) Summary(ctx context.Context, listID int64) (*models.ShoppingListSummary, error) {
	r.mu.Lock()
	l, ok := r.lists[listID]
	if !ok {
		r.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	s := &models.ShoppingListSummary{
		ID:        l.ID,
		Name:      l.Name,
		ShareCode: l.ShareCode,
		CreatedAt: l.CreatedAt,
	}
	r.mu.Unlock()

	if r.products != nil {
		r.products.mu.Lock()
		for _, p := range r.products.products {
			if p.ShoppingListID == listID && p.IsActive {
				s.ProductCount++
			}
		}
		r.products.mu.Unlock()
	}
	return s, nil
}

func (r *fakeListRepo) ListForUser(ctx context.Context, userID int64) ([]models.ShoppingListSummary, error) {
	r.mu.Lock()
	listIDs := []int64{}
	for _, m := range r.memberships {
		if m.UserID == userID && m.IsActive {
			if l, ok := r.lists[m.ShoppingListID]; ok && l.IsActive {
				listIDs = append(listIDs, l.ID)
			}
		}
	}
	r.mu.Unlock()

	result := []models.ShoppingListSummary{}
	for _, id := range listIDs {
		s, err := r.Summary(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, nil
}

func (r *fakeListRepo) AddMember(ctx context.Context, m *models.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMemID++
	m.ID = r.nextMemID
	m.IsActive = true
	r.memberships[m.ID] = m
	return nil
}

func (r *fakeListRepo) FindMembership(ctx context.Context, listID, userID int64) (*models.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.memberships {
		if m.ShoppingListID == listID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeListRepo) SetMembershipActive(ctx context.Context, membershipID int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.memberships[membershipID]; ok {
		m.IsActive = active
	}
	return nil
}

func (r *fakeListRepo) IsActiveMember(ctx context.Context, listID, userID int64) (bool, error) {
	m, err := r.FindMembership(ctx, listID, userID)
	if err != nil {
		return false, nil
	}
	return m.IsActive, nil
}

func (r *fakeListRepo) ActiveMemberCount(ctx context.Context, listID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.memberships {
		if m.ShoppingListID == listID && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeListRepo) Members(ctx context.Context, listID int64) ([]models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.Member{}
	list := r.lists[listID]
	for _, m := range r.memberships {
		if m.ShoppingListID != listID || !m.IsActive {
			continue
		}
		member := models.Member{UserID: m.UserID, JoinedAt: m.JoinedAt}
		if list != nil {
			member.IsOwner = list.CreatedByUserID == m.UserID
		}
		if r.users != nil {
			if u, ok := r.users.users[m.UserID]; ok {
				member.FirstName = u.FirstName
				member.LastName = u.LastName
			}
		}
		result = append(result, member)
	}
	return result, nil
}

func (r *fakeListRepo) MemberIDs(ctx context.Context, listID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int64{}
	for _, m := range r.memberships {
		if m.ShoppingListID == listID && m.IsActive {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

// In-memory product repository.
type fakeProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*models.Product
	users    *fakeUserRepo
}

func newFakeProductRepo(users *fakeUserRepo) *fakeProductRepo {
	return &fakeProductRepo{products: map[int64]*models.Product{}, users: users}
}

func (r *fakeProductRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.IsActive = true
	r.products[p.ID] = p
	return p, nil
}

func (r *fakeProductRepo) GetActiveByID(ctx context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) view(p *models.Product) *models.ProductView {
	v := &models.ProductView{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		IsShared:  p.IsShared,
		IsBought:  p.IsBought(),
		CreatedAt: p.CreatedAt,
	}
	if r.users != nil {
		if u, ok := r.users.users[p.AddedByUserID]; ok {
			v.AddedByFirstName = u.FirstName
			v.AddedByLastName = u.LastName
		}
	}
	return v
}

func (r *fakeProductRepo) View(ctx context.Context, id int64) (*models.ProductView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return nil, common.ErrorNotFound
	}
	return r.view(p), nil
}

func (r *fakeProductRepo) ListForList(ctx context.Context, listID int64) ([]models.ProductView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.ProductView{}
	for _, p := range r.products {
		if p.ShoppingListID == listID && p.IsActive {
			result = append(result, *r.view(p))
		}
	}
	return result, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, id int64, name string, price int64, isShared bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Name, p.Price, p.IsShared = name, price, isShared
	}
	return nil
}

func (r *fakeProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.IsActive = active
	}
	return nil
}

func (r *fakeProductRepo) SetBought(ctx context.Context, id, userID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.BoughtByUserID.Int64 = userID
		p.BoughtByUserID.Valid = true
		p.BoughtAt.Time = at
		p.BoughtAt.Valid = true
	}
	return nil
}

func (r *fakeProductRepo) ClearBought(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.BoughtByUserID.Valid = false
		p.BoughtByUserID.Int64 = 0
		p.BoughtAt.Valid = false
	}
	return nil
}

func (r *fakeProductRepo) DeactivateForUserAndList(ctx context.Context, userID, listID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ShoppingListID == listID && p.AddedByUserID == userID && !p.BoughtByUserID.Valid {
			p.IsActive = false
		}
	}
	return nil
}

func (r *fakeProductRepo) BoughtBetween(ctx context.Context, listID int64, from, to time.Time) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.Product{}
	for _, p := range r.products {
		if p.ShoppingListID != listID || !p.IsActive || !p.BoughtAt.Valid {
			continue
		}
		at := p.BoughtAt.Time
		if at.Before(from) || at.After(to) {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}
