package importer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/importer"
	"bitbucket.org/mmdatafocus/catalog_backend/models"
	"bitbucket.org/mmdatafocus/catalog_backend/utils"
	"github.com/xuri/excelize/v2"
)

func TestImportPromotionLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "catalog_test")
	t.Setenv("BRAND_PREFIXES", "현대,기아")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	// 1) Stage a workbook into a fresh version.
	version, err := models.CreateVersion(ctx, &models.NewVersion{Name: "2026-08 시세", Description: "integration"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	content := buildCatalogWorkbook(t, "현대", [][]interface{}{
		{"1", "2026 아반떼", "TRIM", "2026 아반떼 가솔린", "스마트", "20,000,000", "", "", ""},
		{"", "", "TRIM", "2026 아반떼 가솔린", "모던", "22,000,000", "", "", ""},
		{"", "", "OPTION", "2026 아반떼 가솔린", "스마트", "", "편의", "선루프", "1,200,000"},
		{"", "", "OPTION", "2026 아반떼 가솔린", "모던", "", "안전", "어라운드뷰", "900,000"},
	})

	job, err := models.CreateJob(ctx, models.JobTypeExcelImport, version.ID, "task-import-1")
	if err != nil {
		t.Fatalf("CreateJob(import): %v", err)
	}
	if err := importer.ImportWorkbook(ctx, job.ID, version.ID, "KR", content); err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}

	done, err := models.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if done.Status != models.JobStatusCompleted {
		t.Fatalf("expected import job COMPLETED, got %s (%s)", done.Status, done.ErrorMessage)
	}
	var result importer.ImportResult
	if err := json.Unmarshal(done.Result, &result); err != nil {
		t.Fatalf("unmarshal import result: %v", err)
	}
	if !result.Success || len(result.Errors) != 0 {
		t.Fatalf("expected clean import, got %+v", result)
	}
	if result.BrandCount != 1 || result.VehicleLineCount != 1 || result.ModelCount != 1 ||
		result.TrimCount != 2 || result.OptionCount != 2 {
		t.Fatalf("unexpected created counts: %+v", result)
	}
	if result.TotalRows != 4 || result.ProcessedRows != 4 {
		t.Fatalf("unexpected row counts: %+v", result)
	}

	stats, err := models.GetVersionStats(ctx, version.ID)
	if err != nil {
		t.Fatalf("GetVersionStats: %v", err)
	}
	if stats.TrimCount != 2 || stats.OptionCount != 2 {
		t.Fatalf("staging stats mismatch: %+v", stats)
	}

	// 2) Re-upload of the same workbook reuses every staged row.
	rerun, err := models.CreateJob(ctx, models.JobTypeExcelImport, version.ID, "task-import-2")
	if err != nil {
		t.Fatalf("CreateJob(rerun): %v", err)
	}
	if err := importer.ImportWorkbook(ctx, rerun.ID, version.ID, "KR", content); err != nil {
		t.Fatalf("ImportWorkbook(rerun): %v", err)
	}
	rerunDone, err := models.GetJob(ctx, rerun.ID)
	if err != nil {
		t.Fatalf("GetJob(rerun): %v", err)
	}
	if rerunDone.Status != models.JobStatusCompleted {
		t.Fatalf("expected rerun COMPLETED, got %s (%s)", rerunDone.Status, rerunDone.ErrorMessage)
	}
	var rerunResult importer.ImportResult
	if err := json.Unmarshal(rerunDone.Result, &rerunResult); err != nil {
		t.Fatalf("unmarshal rerun result: %v", err)
	}
	if rerunResult.BrandCount != 0 || rerunResult.VehicleLineCount != 0 || rerunResult.ModelCount != 0 ||
		rerunResult.TrimCount != 0 || rerunResult.OptionCount != 0 {
		t.Fatalf("rerun created rows, expected pure reuse: %+v", rerunResult)
	}
	var stagedTrims int64
	if err := db.WithContext(ctx).Model(&models.StagingTrim{}).Where("version_id = ?", version.ID).Count(&stagedTrims).Error; err != nil {
		t.Fatalf("count staging trims: %v", err)
	}
	if stagedTrims != 2 {
		t.Fatalf("expected 2 staged trims after rerun, got %d", stagedTrims)
	}

	// 3) Approve and promote.
	if _, err := models.ApproveVersion(ctx, version.ID); err != nil {
		t.Fatalf("ApproveVersion: %v", err)
	}
	promoJob, err := models.CreateJob(ctx, models.JobTypePromotion, version.ID, "task-promo-1")
	if err != nil {
		t.Fatalf("CreateJob(promotion): %v", err)
	}
	if err := importer.RunPromotion(ctx, &importer.PromotionTaskPayload{JobId: promoJob.ID, VersionId: version.ID}); err != nil {
		t.Fatalf("RunPromotion: %v", err)
	}
	promoDone, err := models.GetJob(ctx, promoJob.ID)
	if err != nil {
		t.Fatalf("GetJob(promotion): %v", err)
	}
	if promoDone.Status != models.JobStatusCompleted {
		t.Fatalf("expected promotion COMPLETED, got %s (%s)", promoDone.Status, promoDone.ErrorMessage)
	}
	migrated, err := models.GetVersion(ctx, version.ID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if migrated.ApprovalStatus != models.ApprovalStatusMigrated || migrated.MigratedAt == nil {
		t.Fatalf("expected MIGRATED version, got %+v", migrated)
	}

	// The audit trail follows the version through its whole lifecycle.
	versionEvents, err := models.ListEvents(ctx, models.EventFilter{ReferenceID: version.ID, ReferenceType: "Version"})
	if err != nil {
		t.Fatalf("ListEvents(version): %v", err)
	}
	seen := map[string]bool{}
	for _, event := range versionEvents {
		seen[event.ActionType] = true
	}
	for _, action := range []string{models.EventActionCreate, models.EventActionApprove, models.EventActionMigrate} {
		if !seen[action] {
			t.Fatalf("missing version audit event %q, have %+v", action, seen)
		}
	}
	jobEvents, err := models.ListEvents(ctx, models.EventFilter{ReferenceID: promoJob.ID, ReferenceType: "Job"})
	if err != nil {
		t.Fatalf("ListEvents(job): %v", err)
	}
	if len(jobEvents) == 0 {
		t.Fatalf("expected an audit event for the finished promotion job")
	}
	if jobEvents[0].UserId != 1 || jobEvents[0].UserName != "Test" {
		t.Fatalf("expected job event attributed to the acting user, got %+v", jobEvents[0])
	}

	migratedStatus := models.ApprovalStatusMigrated
	migratedList, err := models.ListVersions(ctx, &migratedStatus)
	if err != nil {
		t.Fatalf("ListVersions(MIGRATED): %v", err)
	}
	foundMigrated := false
	for _, row := range migratedList {
		if row.ApprovalStatus != models.ApprovalStatusMigrated {
			t.Fatalf("status filter leaked %s version %d", row.ApprovalStatus, row.ID)
		}
		if row.ID == version.ID {
			foundMigrated = true
		}
	}
	if !foundMigrated {
		t.Fatalf("version %d missing from MIGRATED listing", version.ID)
	}

	byTask, err := models.GetJobByTaskId(ctx, "task-promo-1")
	if err != nil {
		t.Fatalf("GetJobByTaskId: %v", err)
	}
	if byTask.ID != promoJob.ID {
		t.Fatalf("GetJobByTaskId returned job %d, want %d", byTask.ID, promoJob.ID)
	}

	brand := findBrand(t, ctx, "현대")
	lines, err := models.ListVehicleLines(ctx, brand.ID)
	if err != nil {
		t.Fatalf("ListVehicleLines: %v", err)
	}
	if len(lines) != 1 || lines[0].Name != "아반떼" {
		t.Fatalf("vehicle lines = %+v", lines)
	}
	mdls, err := models.ListModels(ctx, lines[0].ID)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(mdls) != 1 || mdls[0].ReleaseYear != 2026 {
		t.Fatalf("models = %+v", mdls)
	}
	trims, err := models.ListTrims(ctx, mdls[0].ID)
	if err != nil {
		t.Fatalf("ListTrims: %v", err)
	}
	if len(trims) != 2 {
		t.Fatalf("expected 2 trims in main catalog, got %+v", trims)
	}

	// 4) The terminal version refuses another promotion run.
	again, err := models.CreateJob(ctx, models.JobTypePromotion, version.ID, "task-promo-2")
	if err != nil {
		t.Fatalf("CreateJob(promotion again): %v", err)
	}
	if err := importer.RunPromotion(ctx, &importer.PromotionTaskPayload{JobId: again.ID, VersionId: version.ID}); err != nil {
		t.Fatalf("RunPromotion(again): %v", err)
	}
	againDone, err := models.GetJob(ctx, again.ID)
	if err != nil {
		t.Fatalf("GetJob(promotion again): %v", err)
	}
	if againDone.Status != models.JobStatusFailed {
		t.Fatalf("expected second promotion FAILED, got %s", againDone.Status)
	}

	// 5) A later version renaming a trim upserts by natural key: the old trim
	// row stays, the renamed one is inserted alongside it.
	next, err := models.CreateVersion(ctx, &models.NewVersion{Name: "2026-09 시세"})
	if err != nil {
		t.Fatalf("CreateVersion(next): %v", err)
	}
	nextContent := buildCatalogWorkbook(t, "현대", [][]interface{}{
		{"1", "2026 아반떼", "TRIM", "2026 아반떼 가솔린", "스마트", "20,500,000", "", "", ""},
		{"", "", "TRIM", "2026 아반떼 가솔린", "모던 플러스", "23,000,000", "", "", ""},
	})
	nextImport, err := models.CreateJob(ctx, models.JobTypeExcelImport, next.ID, "task-import-3")
	if err != nil {
		t.Fatalf("CreateJob(next import): %v", err)
	}
	if err := importer.ImportWorkbook(ctx, nextImport.ID, next.ID, "KR", nextContent); err != nil {
		t.Fatalf("ImportWorkbook(next): %v", err)
	}
	if _, err := models.ApproveVersion(ctx, next.ID); err != nil {
		t.Fatalf("ApproveVersion(next): %v", err)
	}
	nextPromo, err := models.CreateJob(ctx, models.JobTypePromotion, next.ID, "task-promo-3")
	if err != nil {
		t.Fatalf("CreateJob(next promotion): %v", err)
	}
	if err := importer.RunPromotion(ctx, &importer.PromotionTaskPayload{JobId: nextPromo.ID, VersionId: next.ID}); err != nil {
		t.Fatalf("RunPromotion(next): %v", err)
	}
	nextPromoDone, err := models.GetJob(ctx, nextPromo.ID)
	if err != nil {
		t.Fatalf("GetJob(next promotion): %v", err)
	}
	if nextPromoDone.Status != models.JobStatusCompleted {
		t.Fatalf("expected next promotion COMPLETED, got %s (%s)", nextPromoDone.Status, nextPromoDone.ErrorMessage)
	}

	trims, err = models.ListTrims(ctx, mdls[0].ID)
	if err != nil {
		t.Fatalf("ListTrims(after rename): %v", err)
	}
	byName := map[string]int64{}
	for _, trim := range trims {
		byName[trim.Name] = trim.BasePrice
	}
	if len(trims) != 3 {
		t.Fatalf("expected 3 trims after rename promotion, got %+v", trims)
	}
	if byName["스마트"] != 20500000 {
		t.Fatalf("expected 스마트 base price refreshed to 20500000, got %d", byName["스마트"])
	}
	if _, ok := byName["모던"]; !ok {
		t.Fatalf("expected old 모던 trim to survive the rename, got %+v", byName)
	}
	if byName["모던 플러스"] != 23000000 {
		t.Fatalf("expected 모던 플러스 inserted at 23000000, got %+v", byName)
	}

	// 6) Hand-edited staging rows leave an audit trail too.
	draft, err := models.CreateVersion(ctx, &models.NewVersion{Name: "수기 수정"})
	if err != nil {
		t.Fatalf("CreateVersion(draft): %v", err)
	}
	staged, err := models.CreateStagingBrand(ctx, draft.ID, &models.NewStagingBrand{Name: "제네시스", Country: "KR"})
	if err != nil {
		t.Fatalf("CreateStagingBrand: %v", err)
	}
	if _, err := models.UpdateStagingBrand(ctx, draft.ID, staged.ID, &models.NewStagingBrand{Name: "제네시스", Country: "KOR"}); err != nil {
		t.Fatalf("UpdateStagingBrand: %v", err)
	}
	if err := models.DeleteStagingBrand(ctx, draft.ID, staged.ID); err != nil {
		t.Fatalf("DeleteStagingBrand: %v", err)
	}
	brandEvents, err := models.ListEvents(ctx, models.EventFilter{ReferenceID: staged.ID, ReferenceType: "StagingBrand"})
	if err != nil {
		t.Fatalf("ListEvents(staging brand): %v", err)
	}
	got := map[string]bool{}
	for _, event := range brandEvents {
		got[event.ActionType] = true
	}
	for _, action := range []string{models.EventActionCreate, models.EventActionUpdate, models.EventActionDelete} {
		if !got[action] {
			t.Fatalf("missing staging brand audit event %q, have %+v", action, got)
		}
	}
}

func TestImportRejectsNonPendingVersion(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "catalog_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	version, err := models.CreateVersion(ctx, &models.NewVersion{Name: "잠긴 버전"})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := models.ApproveVersion(ctx, version.ID); err != nil {
		t.Fatalf("ApproveVersion: %v", err)
	}

	content := buildCatalogWorkbook(t, "현대", [][]interface{}{
		{"1", "2026 아반떼", "TRIM", "2026 아반떼 가솔린", "스마트", "20000000", "", "", ""},
	})
	job, err := models.CreateJob(ctx, models.JobTypeExcelImport, version.ID, "task-locked-1")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := importer.ImportWorkbook(ctx, job.ID, version.ID, "KR", content); err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}
	done, err := models.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if done.Status != models.JobStatusFailed {
		t.Fatalf("expected FAILED on approved version, got %s", done.Status)
	}
	if !strings.Contains(done.ErrorMessage, "VersionNotIngestable") {
		t.Fatalf("error message = %q", done.ErrorMessage)
	}

	var staged int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&models.StagingBrand{}).Where("version_id = ?", version.ID).Count(&staged).Error; err != nil {
		t.Fatalf("count staging brands: %v", err)
	}
	if staged != 0 {
		t.Fatalf("expected no staged rows for a locked version, got %d", staged)
	}
}

func findBrand(t *testing.T, ctx context.Context, name string) *models.Brand {
	t.Helper()
	brands, err := models.ListBrands(ctx)
	if err != nil {
		t.Fatalf("ListBrands: %v", err)
	}
	for _, brand := range brands {
		if brand.Name == name {
			return brand
		}
	}
	t.Fatalf("brand %q not found in main catalog", name)
	return nil
}

func buildCatalogWorkbook(t *testing.T, sheetName string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	width := 0
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
		if len(row) > width {
			width = len(row)
		}
	}
	if width > 0 {
		end, err := excelize.CoordinatesToCellName(width, len(rows))
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetDimension(sheetName, "A1:"+end); err != nil {
			t.Fatalf("SetSheetDimension: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("catalog-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("catalog-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=catalog_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
