package model

import "time"

// Device is one row of the CPE tracking reporting view. The view is owned by
// the billing system; this service never writes to it. Every column except
// DEVICE_ID may be null.
type Device struct {
	// Identity
	DeviceID       string  `gorm:"column:DEVICE_ID;primaryKey;size:64"`
	DeviceSerialNo *string `gorm:"column:DEVICE_SERIAL_NO"`
	Make           *string `gorm:"column:MAKE"`
	Model          *string `gorm:"column:MODEL"`
	Category       *string `gorm:"column:CATEGORY"`

	// Location
	FromWH               *string    `gorm:"column:FROM_WH"`
	ToLocator            *string    `gorm:"column:TO_LOCATOR"`
	WHName               *string    `gorm:"column:WH_NAME"`
	State                *string    `gorm:"column:STATE"`
	City                 *string    `gorm:"column:CITY"`
	LocationMovementDate *time.Time `gorm:"column:LOCATION_MOVEMENT_DATE"`

	// Acceptance workflow
	L1AccountNo          *string    `gorm:"column:L1_ACCOUNT_NO"`
	L1Name               *string    `gorm:"column:L1_NAME"`
	DateOfL1Acceptance   *time.Time `gorm:"column:DATE_OF_L1_ACCEPTANCE"`
	L1AcceptanceApp      *string    `gorm:"column:L1_ACCEPTANCE_APP"`
	L2AccountNo          *string    `gorm:"column:L2_ACCOUNT_NO"`
	L2Name               *string    `gorm:"column:L2_NAME"`
	DateOfL2Acceptance   *time.Time `gorm:"column:DATE_OF_L2_ACCEPTANCE"`
	L2AcceptanceApp      *string    `gorm:"column:L2_ACCEPTANCE_APP"`
	EnggAccountNo        *string    `gorm:"column:ENGG_ACCOUNT_NO"`
	EnggName             *string    `gorm:"column:ENGG_NAME"`
	L1AssignedToEngg     *time.Time `gorm:"column:L1_ASSIGNED_TO_ENGG"`
	DateOfEnggAssignment *time.Time `gorm:"column:DATE_OF_ENGG_ASSIGNMENT"`
	DateOfEnggAcceptance *time.Time `gorm:"column:DATE_OF_ENGG_ACCEPTANCE"`
	AcceptanceStatus     *string    `gorm:"column:ACCEPTANCE_STATUS"`

	// Ticketing
	FlowType     *string    `gorm:"column:FLOW_TYPE"`
	TicketNo     *string    `gorm:"column:TICKET_NO"`
	TicketDate   *time.Time `gorm:"column:TICKET_DATE"`
	TypeOfTicket *string    `gorm:"column:TYPE_OF_TICKET"`
	TicketStatus *string    `gorm:"column:TICKET_STATUS"`

	// Allocation
	CustomerAccountNo        *string    `gorm:"column:CUSTOMER_ACCOUNT_NO"`
	CustomerName             *string    `gorm:"column:CUSTOMER_NAME"`
	DateOfCustomerAllocation *time.Time `gorm:"column:DATE_OF_CUSTOMER_ALLOCATION"`
	StateID                  *string    `gorm:"column:STATE_ID"`
	CurrentLocationUserID    *string    `gorm:"column:CURRENT_LOCATION_USER_ID"`
	LocationFirstName        *string    `gorm:"column:LOCATION_FIRST_NAME"`
	LocationLastName         *string    `gorm:"column:LOCATION_LAST_NAME"`
	PoidID0                  *int64     `gorm:"column:POID_ID0"`
}

// AllocationStatus is the free-text custody code stored in STATE_ID. The set
// of values is owned by the billing system; the constants below are only the
// ones the dashboard counts by default.
type AllocationStatus string

const (
	AllocationAllocated AllocationStatus = "ALLOCATED"
	AllocationGood      AllocationStatus = "GOOD"
	AllocationRepaired  AllocationStatus = "REPAIRED"
	AllocationRepairing AllocationStatus = "REPAIRING"
	AllocationFaulty    AllocationStatus = "FAULTY"
)
