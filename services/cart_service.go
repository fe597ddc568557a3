package services

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/live"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/utils"
)

// Contribution is one append-only log entry: a guest adding (positive) or
// removing (negative) a quantity of one menu item. Entries are never edited
// or deleted, which is what makes the merge commutative across guests.
type Contribution struct {
	ContributorID   string    `json:"contributor_id"`
	ContributorName string    `json:"contributor_name"`
	MenuItemID      uint      `json:"menu_item_id"`
	ItemName        string    `json:"item_name"`
	UnitPrice       float64   `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	ClientTS        int64     `json:"client_ts"`
	At              time.Time `json:"at"`
}

// ContributorLine is one surviving (contributor, item) pair after merging.
type ContributorLine struct {
	MenuItemID uint    `json:"menu_item_id"`
	ItemName   string  `json:"item_name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
}

type ContributorCart struct {
	ContributorID   string            `json:"contributor_id"`
	ContributorName string            `json:"contributor_name"`
	Lines           []ContributorLine `json:"lines"`
	Subtotal        float64           `json:"subtotal"`
}

// MergedView is the aggregate the staff dashboard shows: every guest's
// surviving lines plus the running total.
type MergedView struct {
	TableID      uint              `json:"table_id"`
	SessionKey   string            `json:"session_key,omitempty"`
	OpenedAt     time.Time         `json:"opened_at,omitempty"`
	Contributors []ContributorCart `json:"contributors"`
	Total        float64           `json:"total"`
}

// cartSession is the live, uncommitted cart for one table. The log is
// guarded by mu for appends; readers take a cheap copy and reduce outside
// the lock, so a slow dashboard read never blocks a guest's write.
type cartSession struct {
	key          string
	tableID      uint
	restaurantID uint
	openedAt     time.Time

	mu     sync.Mutex
	log    []Contribution
	seen   map[string]struct{} // idempotency keys of applied writes
	closed bool

	committing atomic.Bool
}

// snapshot returns a consistent copy of the log as of the call.
func (s *cartSession) snapshot() []Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Contribution, len(s.log))
	copy(out, s.log)
	return out
}

// append applies one contribution, dropping retried duplicates by their
// idempotency key.
func (s *cartSession) append(contrib Contribution) error {
	key := fmt.Sprintf("%s|%d|%d", contrib.ContributorID, contrib.MenuItemID, contrib.ClientTS)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.ErrSessionClosed
	}
	if _, dup := s.seen[key]; dup {
		return nil
	}
	s.seen[key] = struct{}{}
	s.log = append(s.log, contrib)
	return nil
}

func (s *cartSession) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// closeAndSnapshot closes the session and copies the log in one critical
// section. Nothing can be appended between what the caller sees and the
// session refusing further writes, so a commit built on this snapshot can
// never lose an acknowledged contribution.
func (s *cartSession) closeAndSnapshot() []Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	out := make([]Contribution, len(s.log))
	copy(out, s.log)
	return out
}

// reopen undoes a close for a commit that did not go through.
func (s *cartSession) reopen() {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
}

// CartService merges per-guest cart writes for a table into one pending
// cart and turns it into exactly one order on commit.
type CartService struct {
	DB     *gorm.DB
	Tables *TableService
	Orders *OrderService

	mu       sync.RWMutex
	sessions map[uint]*cartSession
}

func NewCartService(db *gorm.DB, tables *TableService, orders *OrderService) *CartService {
	cs := &CartService{
		DB:       db,
		Tables:   tables,
		Orders:   orders,
		sessions: make(map[uint]*cartSession),
	}
	tables.Carts = cs
	return cs
}

// Contributor is the lightweight identity a guest device gets when it scans
// a table's QR code. Not a full account; scoped to one table.
type Contributor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TableID uint   `json:"table_id"`
}

// Join issues a contributor identity for the table and returns whatever
// cart is already pending there. It does not open a session by itself;
// sessions start with the first contribution.
func (cs *CartService) Join(tableID uint, displayName string) (*Contributor, *MergedView, error) {
	if _, err := cs.Tables.GetByID(tableID); err != nil {
		return nil, nil, err
	}

	contributor := &Contributor{
		ID:      uuid.NewString(),
		Name:    displayName,
		TableID: tableID,
	}
	view := cs.MergedView(tableID)

	utils.InfoLogger.Printf("Contributor %q joined table %d", displayName, tableID)
	return contributor, view, nil
}

// AddItem appends a positive contribution. The first contribution on a
// table opens the session and occupies the table; sessionKey must be empty
// then. Later writes echo the session key they were issued; a stale key
// means the session was committed or discarded under them.
func (cs *CartService) AddItem(tableID uint, sessionKey string, contributor Contributor, menuItemID uint, qty int, clientTS int64) (*MergedView, error) {
	if qty <= 0 {
		return nil, apperrors.ErrInvalidTransition.WithMessage("quantity must be positive")
	}
	return cs.applyContribution(tableID, sessionKey, contributor, menuItemID, qty, clientTS)
}

// RemoveItem appends a negative contribution. The merge clamps the pair's
// net quantity at zero, so removing more than was added is harmless.
func (cs *CartService) RemoveItem(tableID uint, sessionKey string, contributor Contributor, menuItemID uint, qty int, clientTS int64) (*MergedView, error) {
	if qty <= 0 {
		return nil, apperrors.ErrInvalidTransition.WithMessage("quantity must be positive")
	}

	cs.mu.RLock()
	_, exists := cs.sessions[tableID]
	cs.mu.RUnlock()
	if !exists {
		// Nothing to remove from; the caller's session is gone.
		return nil, apperrors.ErrSessionClosed
	}
	return cs.applyContribution(tableID, sessionKey, contributor, menuItemID, -qty, clientTS)
}

func (cs *CartService) applyContribution(tableID uint, sessionKey string, contributor Contributor, menuItemID uint, qty int, clientTS int64) (*MergedView, error) {
	table, err := cs.Tables.GetByID(tableID)
	if err != nil {
		return nil, err
	}

	var item models.MenuItem
	err = cs.DB.Where("restaurant_id = ?", table.RestaurantID).First(&item, menuItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("menu item not found")
	}
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, apperrors.ErrNotFound.WithMessage("menu item is not available")
	}

	sess, opened, err := cs.resolveSession(table, sessionKey)
	if err != nil {
		return nil, err
	}
	if opened {
		// First contribution after the table went idle: re-occupy it.
		if _, err := cs.Tables.OccupyForSession(GuestActor(contributor.ID, contributor.Name), tableID); err != nil {
			cs.dropSession(tableID, sess)
			return nil, err
		}
	}

	contrib := Contribution{
		ContributorID:   contributor.ID,
		ContributorName: contributor.Name,
		MenuItemID:      item.ID,
		ItemName:        item.Name,
		UnitPrice:       item.Price,
		Quantity:        qty,
		ClientTS:        clientTS,
		At:              time.Now(),
	}
	if err := sess.append(contrib); err != nil {
		return nil, err
	}

	view := cs.MergedView(tableID)
	live.BroadcastToTable(tableID, live.Message{Event: live.EventCartUpdate, Data: view})
	return view, nil
}

// resolveSession finds the table's active session or opens one. A non-empty
// sessionKey that no longer matches the active session fails with
// SessionClosed: the write belonged to a cart that has already been
// committed or discarded.
func (cs *CartService) resolveSession(table *models.Table, sessionKey string) (*cartSession, bool, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	sess := cs.sessions[table.ID]
	if sessionKey != "" {
		if sess == nil || sess.key != sessionKey {
			return nil, false, apperrors.ErrSessionClosed
		}
		return sess, false, nil
	}
	if sess != nil {
		return sess, false, nil
	}

	sess = &cartSession{
		key:          uuid.NewString(),
		tableID:      table.ID,
		restaurantID: table.RestaurantID,
		openedAt:     time.Now(),
		seen:         make(map[string]struct{}),
	}
	cs.sessions[table.ID] = sess
	utils.InfoLogger.Printf("Cart session %s opened for table %d", sess.key, table.ID)
	return sess, true, nil
}

// dropSession removes a just-opened session whose table occupation failed.
func (cs *CartService) dropSession(tableID uint, sess *cartSession) {
	cs.mu.Lock()
	if cs.sessions[tableID] == sess {
		delete(cs.sessions, tableID)
	}
	cs.mu.Unlock()
}

// MergedView reduces the full contribution log into per-contributor lines
// and a total. Pure read over a snapshot; always safe alongside writers.
func (cs *CartService) MergedView(tableID uint) *MergedView {
	cs.mu.RLock()
	sess := cs.sessions[tableID]
	cs.mu.RUnlock()

	view := &MergedView{TableID: tableID, Contributors: []ContributorCart{}}
	if sess == nil {
		return view
	}
	view.SessionKey = sess.key
	view.OpenedAt = sess.openedAt

	return reduce(view, sess.snapshot())
}

// reduce replays the log. Entries from one contributor are in the order
// that contributor issued them, so a removal only ever cancels quantity
// already present: the running net per (contributor, item) is clamped at
// zero whenever a negative entry lands.
func reduce(view *MergedView, log []Contribution) *MergedView {
	type pair struct {
		contributorID string
		menuItemID    uint
	}

	nets := make(map[pair]*ContributorLine)
	contributorOrder := []string{}
	names := make(map[string]string)
	itemOrder := make(map[string][]uint)

	for _, entry := range log {
		if _, known := names[entry.ContributorID]; !known {
			names[entry.ContributorID] = entry.ContributorName
			contributorOrder = append(contributorOrder, entry.ContributorID)
		}

		p := pair{entry.ContributorID, entry.MenuItemID}
		line, ok := nets[p]
		if !ok {
			line = &ContributorLine{
				MenuItemID: entry.MenuItemID,
				ItemName:   entry.ItemName,
				UnitPrice:  entry.UnitPrice,
			}
			nets[p] = line
			itemOrder[entry.ContributorID] = append(itemOrder[entry.ContributorID], entry.MenuItemID)
		}

		line.Quantity += entry.Quantity
		if line.Quantity < 0 {
			line.Quantity = 0
		}
	}

	for _, cid := range contributorOrder {
		cart := ContributorCart{
			ContributorID:   cid,
			ContributorName: names[cid],
			Lines:           []ContributorLine{},
		}
		for _, itemID := range itemOrder[cid] {
			line := nets[pair{cid, itemID}]
			if line.Quantity == 0 {
				continue
			}
			line.Subtotal = float64(line.Quantity) * line.UnitPrice
			cart.Lines = append(cart.Lines, *line)
			cart.Subtotal += line.Subtotal
		}
		if len(cart.Lines) == 0 {
			continue
		}
		view.Contributors = append(view.Contributors, cart)
		view.Total += cart.Subtotal
	}
	return view
}

// Commit atomically turns the table's pending cart into one order and
// clears the session. The committing flag is claimed with a compare-and-
// swap so concurrent commits on the same session produce exactly one order;
// the losers get AlreadyCommitting.
func (cs *CartService) Commit(tableID uint, actor Actor) (*models.Order, error) {
	if actor.Kind == ActorStaff && !auth.HasPermission(actor.Role, auth.PermManageOrders) {
		return nil, apperrors.ErrForbidden
	}

	cs.mu.RLock()
	sess := cs.sessions[tableID]
	cs.mu.RUnlock()
	if sess == nil {
		return nil, apperrors.ErrEmptyCart.WithMessage("no pending cart for this table")
	}

	if !sess.committing.CompareAndSwap(false, true) {
		return nil, apperrors.ErrAlreadyCommitting
	}

	// Close the session the moment the commit is claimed. A write landing
	// between a snapshot and a later close would be acknowledged and then
	// thrown away with the session; closing first makes racing writers see
	// SessionClosed and rejoin instead.
	view := reduce(&MergedView{TableID: tableID, SessionKey: sess.key, OpenedAt: sess.openedAt}, sess.closeAndSnapshot())
	if len(view.Contributors) == 0 {
		sess.reopen()
		sess.committing.Store(false)
		return nil, apperrors.ErrEmptyCart
	}

	order, err := cs.Orders.CreateFromCart(view, tableID, sess.restaurantID)
	if err != nil {
		sess.reopen()
		sess.committing.Store(false)
		return nil, err
	}

	cs.mu.Lock()
	if cs.sessions[tableID] == sess {
		delete(cs.sessions, tableID)
	}
	cs.mu.Unlock()

	utils.InfoLogger.Printf("Cart session %s committed as order %d (total %.2f) by %s",
		sess.key, order.ID, order.Total, actor.auditID())
	live.BroadcastToTable(tableID, live.Message{Event: live.EventCartUpdate, Data: cs.MergedView(tableID)})
	return order, nil
}

// HasActiveSession reports whether the table has an uncommitted cart.
func (cs *CartService) HasActiveSession(tableID uint) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sessions[tableID] != nil
}

// DiscardSession throws the table's pending cart away (staff reset).
// Writers still holding the old session key get SessionClosed.
func (cs *CartService) DiscardSession(tableID uint) {
	cs.mu.Lock()
	sess := cs.sessions[tableID]
	delete(cs.sessions, tableID)
	cs.mu.Unlock()

	if sess != nil {
		sess.close()
		utils.InfoLogger.Printf("Cart session %s discarded for table %d", sess.key, tableID)
		live.BroadcastToTable(tableID, live.Message{Event: live.EventCartUpdate, Data: cs.MergedView(tableID)})
	}
}
