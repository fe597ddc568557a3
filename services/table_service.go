package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/live"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/utils"
)

// cartState is what the table manager needs to know about live cart
// sessions without depending on the cart service directly.
type cartState interface {
	HasActiveSession(tableID uint) bool
	DiscardSession(tableID uint)
}

// TableService owns table records and their status state machine. Every
// transition is permission checked and recorded as a TableStatusEvent.
type TableService struct {
	DB    *gorm.DB
	Carts cartState // set after the cart service is constructed
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{DB: db}
}

func (ts *TableService) Create(actor Actor, restaurantID uint, number string, capacity int) (*models.Table, error) {
	if !ts.allowed(actor, auth.PermManageTables) {
		return nil, apperrors.ErrForbidden
	}

	table := models.Table{
		RestaurantID: restaurantID,
		Number:       number,
		Capacity:     capacity,
		Status:       models.TableAvailable,
	}
	if table.Capacity <= 0 {
		table.Capacity = 4
	}
	if err := ts.DB.Create(&table).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Table %s created for restaurant %d", table.Number, restaurantID)
	live.BroadcastMessage(live.Message{Event: live.EventTableCreate, Data: table})
	return &table, nil
}

func (ts *TableService) Delete(actor Actor, restaurantID, tableID uint) error {
	if !ts.allowed(actor, auth.PermManageTables) {
		return apperrors.ErrForbidden
	}

	table, err := ts.Get(restaurantID, tableID)
	if err != nil {
		return err
	}
	if table.Status == models.TableOccupied {
		return apperrors.ErrInvalidTransition.WithMessage("cannot delete an occupied table")
	}
	if err := ts.DB.Delete(&models.Table{}, table.ID).Error; err != nil {
		return err
	}

	live.BroadcastMessage(live.Message{Event: live.EventTableDelete, Data: map[string]interface{}{"table_id": table.ID}})
	return nil
}

func (ts *TableService) Get(restaurantID, tableID uint) (*models.Table, error) {
	var table models.Table
	err := ts.DB.Where("restaurant_id = ?", restaurantID).First(&table, tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// GetByID looks a table up without tenant scoping; used by the guest-facing
// scan path where the table id itself is the deep-link credential.
func (ts *TableService) GetByID(tableID uint) (*models.Table, error) {
	var table models.Table
	err := ts.DB.First(&table, tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (ts *TableService) List(restaurantID uint) ([]models.Table, error) {
	var tables []models.Table
	if err := ts.DB.Where("restaurant_id = ?", restaurantID).Order("number").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// History returns the recorded status transitions, newest first.
func (ts *TableService) History(restaurantID, tableID uint) ([]models.TableStatusEvent, error) {
	if _, err := ts.Get(restaurantID, tableID); err != nil {
		return nil, err
	}
	var events []models.TableStatusEvent
	if err := ts.DB.Where("table_id = ?", tableID).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Transition drives an explicit staff move: seat (-> occupied), reserve,
// unreserve. Implicit occupation by a first cart write goes through
// OccupyForSession instead; freeing an occupied table goes through Reset.
func (ts *TableService) Transition(actor Actor, restaurantID, tableID uint, to string) (*models.Table, error) {
	if !ts.allowed(actor, auth.PermManageTables) {
		return nil, apperrors.ErrForbidden
	}

	table, err := ts.Get(restaurantID, tableID)
	if err != nil {
		return nil, err
	}

	from := table.Status
	switch {
	case from == models.TableAvailable && to == models.TableOccupied:
		// staff seating a walk-in party
	case from == models.TableReserved && to == models.TableOccupied:
		// the reserved party arrived
	case from == models.TableAvailable && to == models.TableReserved:
	case from == models.TableReserved && to == models.TableAvailable:
	case from == models.TableOccupied && to == models.TableAvailable:
		return ts.Reset(actor, restaurantID, tableID)
	default:
		// occupied -> reserved in particular is never allowed: a table with a
		// live session or open order cannot be pre-booked.
		return nil, apperrors.ErrInvalidTransition
	}

	if err := ts.applyStatus(table, to, actor); err != nil {
		return nil, err
	}
	return table, nil
}

// OccupyForSession flips a table to occupied when its first cart
// contribution arrives. No permission needed: anonymous guests occupy a
// table simply by ordering. A no-op when already occupied.
func (ts *TableService) OccupyForSession(actor Actor, tableID uint) (*models.Table, error) {
	table, err := ts.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	if table.Status == models.TableOccupied {
		return table, nil
	}
	if err := ts.applyStatus(table, models.TableOccupied, actor); err != nil {
		return nil, err
	}
	return table, nil
}

// Reset frees an occupied table and throws away any uncommitted cart
// session. Staff only.
func (ts *TableService) Reset(actor Actor, restaurantID, tableID uint) (*models.Table, error) {
	if !ts.allowed(actor, auth.PermManageTables) {
		return nil, apperrors.ErrForbidden
	}

	table, err := ts.Get(restaurantID, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != models.TableOccupied {
		return nil, apperrors.ErrInvalidTransition.WithMessage("only an occupied table can be reset")
	}

	if ts.Carts != nil {
		ts.Carts.DiscardSession(tableID)
	}
	if err := ts.applyStatus(table, models.TableAvailable, actor); err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Table %d reset to available by %s", tableID, actor.auditID())
	return table, nil
}

// ReleaseAfterOrder is called when an order on the table reaches a terminal
// status. The table goes back to available only if nothing else keeps it
// occupied: no live cart session and no other open order.
func (ts *TableService) ReleaseAfterOrder(tableID uint) error {
	table, err := ts.GetByID(tableID)
	if err != nil {
		return err
	}
	if table.Status != models.TableOccupied {
		return nil
	}
	if ts.Carts != nil && ts.Carts.HasActiveSession(tableID) {
		return nil
	}

	var open int64
	err = ts.DB.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", tableID, []string{models.OrderCompleted, models.OrderCancelled}).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}

	return ts.applyStatus(table, models.TableAvailable, SystemActor)
}

func (ts *TableService) applyStatus(table *models.Table, to string, actor Actor) error {
	from := table.Status
	err := ts.DB.Transaction(func(tx *gorm.DB) error {
		table.Status = to
		if err := tx.Save(table).Error; err != nil {
			return err
		}
		event := models.TableStatusEvent{
			TableID:    table.ID,
			FromStatus: from,
			ToStatus:   to,
			ActorKind:  actor.Kind,
			ActorID:    actor.auditID(),
			CreatedAt:  time.Now(),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		table.Status = from
		return err
	}

	utils.InfoLogger.Printf("Table %d status changed %s -> %s", table.ID, from, to)
	live.BroadcastToTable(table.ID, live.Message{Event: live.EventTableUpdate, Data: table})
	return nil
}

// allowed gates explicit table moves. System actors bypass the check,
// guests never pass it.
func (ts *TableService) allowed(actor Actor, perm auth.Permission) bool {
	switch actor.Kind {
	case ActorSystem:
		return true
	case ActorStaff:
		return auth.HasPermission(actor.Role, perm)
	default:
		return false
	}
}
