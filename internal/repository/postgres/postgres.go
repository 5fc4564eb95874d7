package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/careflow/hospital-api/internal/repository"
)

type queueRepository struct {
	db *sqlx.DB
}

type patientRepository struct {
	db *sqlx.DB
}

type clinicianRepository struct {
	db *sqlx.DB
}

func NewQueueRepository(db *sqlx.DB) repository.QueueRepository {
	return &queueRepository{db: db}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewClinicianRepository(db *sqlx.DB) repository.ClinicianRepository {
	return &clinicianRepository{db: db}
}
