package domain

import "time"

// Draw is static reference data describing a lottery draw.
type Draw struct {
	ID    string     `json:"id" yaml:"id"`
	Name  string     `json:"name" yaml:"name"`
	Slots []DrawTime `json:"slots" yaml:"slots"`
}

func (d Draw) HasSlot(slot DrawTime) bool {
	for _, s := range d.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// DrawResult is published once per (draw, slot, date) and never modified.
type DrawResult struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Draw          string    `json:"draw" gorm:"column:draw;not null;uniqueIndex:idx_draw_results_key"`
	DrawTime      DrawTime  `json:"draw_time" gorm:"column:draw_time;not null;uniqueIndex:idx_draw_results_key"`
	DrawDate      string    `json:"draw_date" gorm:"column:draw_date;not null;uniqueIndex:idx_draw_results_key"`
	Lot1          string    `json:"lot1" gorm:"column:lot1;not null"`
	Lot2          string    `json:"lot2" gorm:"column:lot2"`
	Lot3          string    `json:"lot3" gorm:"column:lot3"`
	PublishedBy   uint      `json:"published_by" gorm:"column:published_by"`
	PublisherRole string    `json:"publisher_role" gorm:"column:publisher_role"`
	PublishedAt   time.Time `json:"published_at" gorm:"column:published_at"`
}

func (DrawResult) TableName() string {
	return "draw_results"
}

// Lots returns lot1..lot3 by position. Unpublished lots are empty.
func (r DrawResult) Lots() [3]string {
	return [3]string{r.Lot1, r.Lot2, r.Lot3}
}
