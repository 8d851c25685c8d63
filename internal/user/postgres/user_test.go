package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	attendanceDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/attendance"
	materialDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/material"
	userDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/user"
	workreportDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/workreport"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/frahmantamala/electrotrack/internal/testutil"
	"github.com/frahmantamala/electrotrack/internal/user"
	userPostgres "github.com/frahmantamala/electrotrack/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

var _ = Describe("User Repository", func() {
	var (
		db   *gorm.DB
		repo user.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		repo = userPostgres.NewUserRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(testutil.Close(db)).To(Succeed())
	})

	newUser := func(username string, r role.Role, supervisorID *int64) *user.User {
		return &user.User{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: "hash",
			Role:         r,
			SupervisorID: supervisorID,
			IsActive:     true,
		}
	}

	It("creates and fetches a user", func() {
		site := "Substation 4"
		u := newUser("lina", role.Electrician, nil)
		u.SiteLocation = &site

		Expect(repo.Create(ctx, u)).To(Succeed())
		Expect(u.ID).NotTo(BeZero())

		byID, err := repo.GetByID(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Username).To(Equal("lina"))
		Expect(byID.Role).To(Equal(role.Electrician))
		Expect(byID.SiteLocation).To(HaveValue(Equal("Substation 4")))

		byName, err := repo.GetByUsername(ctx, "lina")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal(u.ID))
	})

	It("maps a duplicate username to ErrUsernameTaken", func() {
		Expect(repo.Create(ctx, newUser("lina", role.Electrician, nil))).To(Succeed())

		err := repo.Create(ctx, newUser("lina", role.Storekeeper, nil))

		Expect(err).To(MatchError(user.ErrUsernameTaken))
	})

	It("maps duplicates on a session opened with the server gorm config", func() {
		server, err := gorm.Open(sqlite.Open(":memory:"), internal.GormConfig(nil))
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(testutil.Close(server)).To(Succeed()) }()
		Expect(server.AutoMigrate(&userDatamodel.User{})).To(Succeed())
		serverRepo := userPostgres.NewUserRepository(server)

		Expect(serverRepo.Create(ctx, newUser("lina", role.Electrician, nil))).To(Succeed())
		err = serverRepo.Create(ctx, newUser("lina", role.Storekeeper, nil))

		Expect(err).To(MatchError(user.ErrUsernameTaken))
	})

	It("returns ErrNotFound for unknown users", func() {
		_, err := repo.GetByID(ctx, 404)
		Expect(err).To(MatchError(user.ErrNotFound))

		_, err = repo.GetByUsername(ctx, "ghost")
		Expect(err).To(MatchError(user.ErrNotFound))
	})

	It("lists a supervisor with their subordinates", func() {
		sup := newUser("sup", role.Supervisor, nil)
		Expect(repo.Create(ctx, sup)).To(Succeed())
		Expect(repo.Create(ctx, newUser("amir", role.Electrician, &sup.ID))).To(Succeed())
		Expect(repo.Create(ctx, newUser("zoe", role.Storekeeper, nil))).To(Succeed())

		team, err := repo.List(ctx, user.ListFilter{SupervisorID: &sup.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(team).To(HaveLen(2))
		Expect(team[0].Username).To(Equal("amir"))
		Expect(team[1].Username).To(Equal("sup"))

		all, err := repo.List(ctx, user.ListFilter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
	})

	It("updates the stored fields, including clearing the supervisor", func() {
		sup := newUser("sup", role.Supervisor, nil)
		Expect(repo.Create(ctx, sup)).To(Succeed())
		u := newUser("amir", role.Electrician, &sup.ID)
		Expect(repo.Create(ctx, u)).To(Succeed())

		u.FirstName = "Amir"
		u.SupervisorID = nil
		u.IsActive = false
		Expect(repo.Update(ctx, u)).To(Succeed())

		got, err := repo.GetByID(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.FirstName).To(Equal("Amir"))
		Expect(got.SupervisorID).To(BeNil())
		Expect(got.IsActive).To(BeFalse())
	})

	It("deletes a user with their records and detaches subordinates", func() {
		sup := newUser("sup", role.Supervisor, nil)
		Expect(repo.Create(ctx, sup)).To(Succeed())
		u := newUser("amir", role.Electrician, &sup.ID)
		Expect(repo.Create(ctx, u)).To(Succeed())

		now := time.Now()
		Expect(db.Create(&attendanceDatamodel.Record{UserID: sup.ID, ClockIn: &now}).Error).To(Succeed())
		Expect(db.Create(&workreportDatamodel.WorkReport{UserID: sup.ID, TaskName: "Inspect", Description: "Panel", HoursWorked: 2}).Error).To(Succeed())
		Expect(db.Create(&materialDatamodel.Request{UserID: sup.ID, ItemName: "Wire", Quantity: 3}).Error).To(Succeed())
		Expect(db.Create(&workreportDatamodel.WorkReport{UserID: u.ID, TaskName: "Keep", Description: "Mine", HoursWorked: 1}).Error).To(Succeed())

		Expect(repo.Delete(ctx, sup.ID)).To(Succeed())

		var count int64
		Expect(db.Model(&attendanceDatamodel.Record{}).Where("user_id = ?", sup.ID).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())
		Expect(db.Model(&workreportDatamodel.WorkReport{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
		Expect(db.Model(&materialDatamodel.Request{}).Count(&count).Error).To(Succeed())
		Expect(count).To(BeZero())

		var left userDatamodel.User
		Expect(db.First(&left, u.ID).Error).To(Succeed())
		Expect(left.SupervisorID).To(BeNil())

		_, err := repo.GetByID(ctx, sup.ID)
		Expect(err).To(MatchError(user.ErrNotFound))
	})

	It("returns ErrNotFound when deleting an unknown user", func() {
		Expect(repo.Delete(ctx, 404)).To(MatchError(user.ErrNotFound))
	})
})
