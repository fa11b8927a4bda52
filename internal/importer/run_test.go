package importer_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fylein/fyle-integrations-imports/internal"
	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/cache"
	"github.com/fylein/fyle-integrations-imports/internal/connector"
	importlogDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/importlog"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

var _ = Describe("Import Run", func() {
	var (
		ctx context.Context
		env *testEnv
		cfg importer.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newTestEnv(connector.SyncProjects)
		cfg = importer.Config{
			WorkspaceID:            testWorkspaceID,
			SourceField:            attribute.TypeProject,
			DestinationField:       attribute.TypeProject,
			DestinationSyncMethods: []string{connector.SyncProjects},
			PropagateErrors:        true,
		}
	})

	run := func() error {
		imp, err := importer.New(cfg, env.deps)
		Expect(err).NotTo(HaveOccurred())
		return imp.Run(ctx)
	}

	Describe("a first run over a small destination set", func() {
		BeforeEach(func() {
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil),
				destAttr(2, attribute.TypeProject, "Beta", "P2", boolPtr(true)),
				destAttr(3, attribute.TypeProject, "Gamma", "P3", nil),
			)
		})

		It("posts one batch and completes the import log", func() {
			Expect(run()).To(Succeed())

			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.bulks).To(HaveLen(1))
			Expect(res.bulks[0]).To(HaveLen(3))

			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
			Expect(log.TotalBatchesCount).To(Equal(1))
			Expect(log.ProcessedBatchesCount).To(Equal(1))
			Expect(log.LastSuccessfulRunAt).NotTo(BeNil())
		})

		It("builds create payloads with name, code and description", func() {
			Expect(run()).To(Succeed())

			res := env.platform.resource(platform.ResourceProjects)
			payload, ok := res.bulks[0][0].(platform.ProjectPayload)
			Expect(ok).To(BeTrue())
			Expect(payload.Name).To(Equal("Alpha"))
			Expect(payload.Code).NotTo(BeNil())
			Expect(*payload.Code).To(Equal("P1"))
			Expect(payload.Description).To(Equal("Project - Alpha, Id - P1"))
			Expect(payload.IsEnabled).To(BeTrue())
		})

		It("refreshes the connector and the platform mirror around the batches", func() {
			Expect(run()).To(Succeed())

			Expect(env.synced[connector.SyncProjects]).To(Equal(1))
			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.syncAfter).To(HaveLen(2))
			Expect(res.syncAfter[0]).To(BeNil())
			Expect(res.syncAfter[1]).To(BeNil())
		})

		It("creates value mappings after the run", func() {
			Expect(run()).To(Succeed())

			Expect(env.mappings.mappingCalls).To(HaveLen(1))
			Expect(env.mappings.mappingCalls[0].sourceType).To(Equal(attribute.TypeProject))
			Expect(env.mappings.mappingCalls[0].count).To(Equal(3))
		})

		It("clears the in-progress cache flag once the run leaves IN_PROGRESS", func() {
			Expect(run()).To(Succeed())

			_, found, err := env.cache.Get(ctx, cache.ProgressKey(testWorkspaceID, attribute.TypeProject))
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("saves IN_PROGRESS before any work and COMPLETE at the end", func() {
			Expect(run()).To(Succeed())

			Expect(env.logs.statuses).To(Equal([]string{
				importlogDatamodel.StatusInProgress,
				importlogDatamodel.StatusInProgress,
				importlogDatamodel.StatusComplete,
			}))
		})
	})

	Describe("the freshness window", func() {
		It("skips a run when the last success is under thirty minutes old", func() {
			recent := time.Now().UTC().Add(-5 * time.Minute)
			env.logs.Seed(&importlogDatamodel.ImportLog{
				WorkspaceID:         testWorkspaceID,
				AttributeType:       attribute.TypeProject,
				Status:              importlogDatamodel.StatusComplete,
				LastSuccessfulRunAt: &recent,
			})
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil))

			Expect(run()).To(Succeed())

			Expect(env.logs.statuses).To(BeEmpty())
			Expect(env.platform.resources).To(BeEmpty())
			Expect(env.synced[connector.SyncProjects]).To(BeZero())
		})

		It("runs again once the last success is outside the window", func() {
			old := time.Now().UTC().Add(-2 * time.Hour)
			env.logs.Seed(&importlogDatamodel.ImportLog{
				WorkspaceID:         testWorkspaceID,
				AttributeType:       attribute.TypeProject,
				Status:              importlogDatamodel.StatusComplete,
				LastSuccessfulRunAt: &old,
			})
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil))

			Expect(run()).To(Succeed())

			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
			Expect(log.LastSuccessfulRunAt.After(old)).To(BeTrue())
		})

		It("passes the previous success as the incremental sync watermark", func() {
			old := time.Now().UTC().Add(-2 * time.Hour)
			env.logs.Seed(&importlogDatamodel.ImportLog{
				WorkspaceID:         testWorkspaceID,
				AttributeType:       attribute.TypeProject,
				Status:              importlogDatamodel.StatusComplete,
				LastSuccessfulRunAt: &old,
			})
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil))

			Expect(run()).To(Succeed())

			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.syncAfter[0]).NotTo(BeNil())
			Expect(res.syncAfter[0].Equal(old)).To(BeTrue())
		})
	})

	Describe("the in-progress guard", func() {
		BeforeEach(func() {
			env.logs.Seed(&importlogDatamodel.ImportLog{
				WorkspaceID:   testWorkspaceID,
				AttributeType: attribute.TypeProject,
				Status:        importlogDatamodel.StatusInProgress,
			})
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil))
		})

		It("skips when another run holds the log", func() {
			Expect(run()).To(Succeed())

			Expect(env.logs.statuses).To(BeEmpty())
			Expect(env.platform.resources).To(BeEmpty())
		})

		It("proceeds when the caller explicitly overrides", func() {
			cfg.AllowInProgressOverride = true

			Expect(run()).To(Succeed())

			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.bulks).To(HaveLen(1))
		})

		It("still honors the freshness window under an override", func() {
			recent := time.Now().UTC().Add(-10 * time.Minute)
			env.logs.logs["1:PROJECT"].LastSuccessfulRunAt = &recent
			cfg.AllowInProgressOverride = true

			Expect(run()).To(Succeed())

			Expect(env.logs.statuses).To(BeEmpty())
		})
	})

	Describe("an empty destination set", func() {
		It("completes immediately without posting", func() {
			Expect(run()).To(Succeed())

			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
			Expect(log.TotalBatchesCount).To(BeZero())
			Expect(log.ProcessedBatchesCount).To(BeZero())
			Expect(log.LastSuccessfulRunAt).NotTo(BeNil())

			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.bulks).To(BeEmpty())
			Expect(res.posted).To(BeEmpty())
		})
	})

	Describe("batching", func() {
		It("splits large sets into 200-row batches in stable order", func() {
			for i := 1; i <= 250; i++ {
				env.attrs.destinations = append(env.attrs.destinations,
					destAttr(int64(i), attribute.TypeProject, fmt.Sprintf("Project %03d", i), fmt.Sprintf("P%03d", i), nil))
			}

			Expect(run()).To(Succeed())

			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.bulks).To(HaveLen(2))
			Expect(res.bulks[0]).To(HaveLen(200))
			Expect(res.bulks[1]).To(HaveLen(50))

			log := env.logs.logs["1:PROJECT"]
			Expect(log.TotalBatchesCount).To(Equal(2))
			Expect(log.ProcessedBatchesCount).To(Equal(2))
			Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
		})
	})

	Describe("a second run over an unchanged set", func() {
		It("posts nothing but still completes and links mappings", func() {
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil),
				destAttr(2, attribute.TypeProject, "Beta", "P2", nil),
			)
			env.attrs.expense = append(env.attrs.expense,
				expAttr(10, attribute.TypeProject, "alpha", "src1", true),
				expAttr(11, attribute.TypeProject, "Beta", "src2", true),
			)

			Expect(run()).To(Succeed())

			res := env.platform.resource(platform.ResourceProjects)
			Expect(res.bulks).To(BeEmpty())

			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
			Expect(env.mappings.mappingCalls).To(HaveLen(1))
		})
	})

	Describe("failure classification", func() {
		BeforeEach(func() {
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(1, attribute.TypeProject, "Alpha", "P1", nil))
		})

		It("marks authorization failures FATAL", func() {
			env.platform.resource(platform.ResourceProjects).syncErr =
				internal.NewAuthorizationError("invalid platform token", internal.ErrCodeInvalidToken)

			err := run()

			Expect(err).To(HaveOccurred())
			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusFatal))
			Expect(log.ErrorLog).To(HaveLen(1))
			Expect(log.ErrorLog[0].Type).To(Equal(string(internal.ErrorTypeAuthorization)))
		})

		It("marks transient failures FAILED and keeps progress counters", func() {
			env.platform.resource(platform.ResourceProjects).bulkErr =
				internal.NewTransientError("rate limited", internal.ErrCodeRateLimited)

			err := run()

			Expect(err).To(HaveOccurred())
			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusFailed))
			Expect(log.TotalBatchesCount).To(Equal(1))
			Expect(log.ProcessedBatchesCount).To(BeZero())
			Expect(log.ErrorLog[0].Type).To(Equal(string(internal.ErrorTypeTransient)))
		})

		It("classifies unknown errors as transient", func() {
			env.attrs.SetShouldFail(true, errors.New("connection reset"))

			err := run()

			Expect(err).To(HaveOccurred())
			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusFailed))
			Expect(log.ErrorLog[0].Type).To(Equal(string(internal.ErrorTypeTransient)))
		})

		It("swallows errors for scheduled runs", func() {
			cfg.PropagateErrors = false
			env.platform.resource(platform.ResourceProjects).bulkErr =
				internal.NewTransientError("rate limited", internal.ErrCodeRateLimited)

			Expect(run()).To(Succeed())

			log := env.logs.logs["1:PROJECT"]
			Expect(log.Status).To(Equal(importlogDatamodel.StatusFailed))
		})

		It("clears the in-progress cache flag after a failure", func() {
			env.platform.resource(platform.ResourceProjects).bulkErr =
				internal.NewTransientError("rate limited", internal.ErrCodeRateLimited)

			Expect(run()).To(HaveOccurred())

			_, found, err := env.cache.Get(ctx, cache.ProgressKey(testWorkspaceID, attribute.TypeProject))
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("construction", func() {
		It("rejects a missing workspace id", func() {
			cfg.WorkspaceID = 0

			_, err := importer.New(cfg, env.deps)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidConfig))
		})

		It("rejects an unknown source field without the custom flag", func() {
			cfg.SourceField = "SOMETHING_ELSE"

			_, err := importer.New(cfg, env.deps)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnknownSourceField))
		})

		It("rejects sync methods the connector does not register", func() {
			cfg.DestinationSyncMethods = []string{"nonexistent"}

			_, err := importer.New(cfg, env.deps)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnknownSyncMethod))
		})

		It("rejects an empty sync method list", func() {
			cfg.DestinationSyncMethods = nil

			_, err := importer.New(cfg, env.deps)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidConfig))
		})
	})
})
