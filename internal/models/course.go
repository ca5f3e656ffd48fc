package models

import "time"

// Course is a catalog entry identified by its code.
type Course struct {
	ID              string    `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Credit          int       `db:"credit" json:"credit"`
	CreditLecture   int       `db:"credit_lecture" json:"-"`
	CreditLab       int       `db:"credit_lab" json:"-"`
	CreditSelfStudy int       `db:"credit_self_study" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CreditBreakdown splits a course's credit into lecture, lab and self-study hours.
type CreditBreakdown struct {
	Lecture   int `json:"lecture"`
	Lab       int `json:"lab"`
	SelfStudy int `json:"self_study"`
}

// Breakdown returns the credit description of the course.
func (c Course) Breakdown() CreditBreakdown {
	return CreditBreakdown{Lecture: c.CreditLecture, Lab: c.CreditLab, SelfStudy: c.CreditSelfStudy}
}
