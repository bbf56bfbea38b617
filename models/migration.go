package models

import (
	"log"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Version{},
		&StagingBrand{}, &StagingVehicleLine{}, &StagingModel{}, &StagingTrim{}, &StagingOption{},
		&Brand{}, &VehicleLine{}, &Model{}, &Trim{}, &Option{},
		&Job{}, &TaskMessageRecord{},
		&User{}, &Role{}, &RoleModule{}, &Module{},
		&Event{},
		&DiscountPolicy{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
