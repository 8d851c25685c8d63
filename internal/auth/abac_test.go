package auth

import (
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Policy", func() {
	var (
		policy     *Policy
		supID      int64
		admin      *User
		supervisor *User
		otherSup   *User
		worker     *User
		colleague  *User
		workerRec  Resource
	)

	ginkgo.BeforeEach(func() {
		policy = NewPolicy(nil)
		supID = 2
		admin = &User{ID: 1, Role: role.Admin}
		supervisor = &User{ID: supID, Role: role.Supervisor}
		otherSup = &User{ID: 5, Role: role.Supervisor}
		worker = &User{ID: 3, Role: role.Electrician, SupervisorID: &supID}
		colleague = &User{ID: 4, Role: role.Storekeeper, SupervisorID: &supID}
		workerRec = Resource{Ledger: LedgerWorkReport, OwnerID: worker.ID, OwnerSupervisorID: &supID}
	})

	ginkgo.It("lets admins do anything", func() {
		for _, action := range []Action{ActionView, ActionApprove, ActionReject, ActionAdjustHours} {
			gomega.Expect(policy.Allow(admin, action, workerRec)).To(gomega.BeTrue())
		}
	})

	ginkgo.It("lets the direct supervisor decide", func() {
		gomega.Expect(policy.Allow(supervisor, ActionApprove, workerRec)).To(gomega.BeTrue())
		gomega.Expect(policy.Allow(supervisor, ActionAdjustHours, workerRec)).To(gomega.BeTrue())
		gomega.Expect(policy.Allow(otherSup, ActionApprove, workerRec)).To(gomega.BeFalse())
		gomega.Expect(policy.Allow(otherSup, ActionView, workerRec)).To(gomega.BeFalse())
	})

	ginkgo.It("lets any supervisor view material requests", func() {
		material := Resource{Ledger: LedgerMaterial, OwnerID: colleague.ID}

		gomega.Expect(policy.Allow(otherSup, ActionView, material)).To(gomega.BeTrue())
		gomega.Expect(policy.Allow(otherSup, ActionApprove, material)).To(gomega.BeFalse())
	})

	ginkgo.It("never lets a supervisor decide on their own record", func() {
		own := Resource{Ledger: LedgerAttendance, OwnerID: supID, OwnerSupervisorID: &supID}

		gomega.Expect(policy.Allow(supervisor, ActionView, own)).To(gomega.BeTrue())
		gomega.Expect(policy.Allow(supervisor, ActionApprove, own)).To(gomega.BeFalse())
	})

	ginkgo.It("limits employees to viewing their own records", func() {
		gomega.Expect(policy.Allow(worker, ActionView, workerRec)).To(gomega.BeTrue())
		gomega.Expect(policy.Allow(worker, ActionApprove, workerRec)).To(gomega.BeFalse())
		gomega.Expect(policy.Allow(colleague, ActionView, workerRec)).To(gomega.BeFalse())
		gomega.Expect(policy.Allow(nil, ActionView, workerRec)).To(gomega.BeFalse())
	})

	ginkgo.It("only transitions on approve and reject", func() {
		gomega.Expect(policy.CanTransition(admin, ActionReject, workerRec)).To(gomega.BeTrue())
		gomega.Expect(policy.CanTransition(admin, ActionView, workerRec)).To(gomega.BeFalse())
		gomega.Expect(policy.CanTransition(admin, ActionAdjustHours, workerRec)).To(gomega.BeFalse())
	})
})

var _ = ginkgo.Describe("PermissionChecker", func() {
	checker := NewPermissionChecker()

	ginkgo.DescribeTable("role capabilities",
		func(r role.Role, clock, material, manage, users bool) {
			u := &User{ID: 1, Role: r}
			gomega.Expect(checker.CanClockInOut(u)).To(gomega.Equal(clock))
			gomega.Expect(checker.CanSubmitMaterialRequest(u)).To(gomega.Equal(material))
			gomega.Expect(checker.CanViewManagement(u)).To(gomega.Equal(manage))
			gomega.Expect(checker.CanListUsers(u)).To(gomega.Equal(manage))
			gomega.Expect(checker.CanManageUsers(u)).To(gomega.Equal(users))
		},
		ginkgo.Entry("admin", role.Admin, false, false, true, true),
		ginkgo.Entry("supervisor", role.Supervisor, false, false, true, false),
		ginkgo.Entry("electrician", role.Electrician, true, true, false, false),
		ginkgo.Entry("storekeeper", role.Storekeeper, true, true, false, false),
	)

	ginkgo.It("denies a missing user", func() {
		gomega.Expect(checker.CanClockInOut(nil)).To(gomega.BeFalse())
		gomega.Expect(checker.HasAnyRole(nil, role.Admin)).To(gomega.BeFalse())
	})
})
