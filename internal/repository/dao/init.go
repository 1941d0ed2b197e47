package dao

import (
	"fmt"

	"gorm.io/gorm"
)

// appendOnlyTables may only ever be inserted into.
var appendOnlyTables = []string{
	"checkins",
	"transactions",
	"token_deposits",
	"vendor_token_turnins",
	"audit_logs",
}

func InitTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Child{},
		&Balance{},
		&Checkin{},
		&Transaction{},
		&TokenDeposit{},
		&VendorTokenTurnin{},
		&AuditLog{},
		&QRCode{},
	)
	if err != nil {
		return fmt.Errorf("db.AutoMigrate -> %w", err)
	}

	return guardAppendOnly(db)
}

func guardAppendOnly(db *gorm.DB) error {
	fn := `
CREATE OR REPLACE FUNCTION reject_append_only_change() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'table % is append-only', TG_TABLE_NAME;
END;
$$ LANGUAGE plpgsql`
	if err := db.Exec(fn).Error; err != nil {
		return fmt.Errorf("create append-only function -> %w", err)
	}

	for _, table := range appendOnlyTables {
		trigger := "trg_" + table + "_append_only"
		stmts := []string{
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table),
			fmt.Sprintf(`CREATE TRIGGER %s BEFORE UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION reject_append_only_change()`, trigger, table),
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("guard %s -> %w", table, err)
			}
		}
	}

	return nil
}
