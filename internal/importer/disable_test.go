package importer_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/connector"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

var _ = Describe("Disable callbacks", func() {
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
		}
	})

	It("disables the platform attribute rendered from the old name", func() {
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeProject, "Old Project", "p1", true))

		count, err := importer.DisableProjects(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Old Project", NewValue: "New Project"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))

		res := env.platform.resource(platform.ResourceProjects)
		Expect(res.bulks).To(HaveLen(1))
		payload := res.bulks[0][0].(platform.ProjectPayload)
		Expect(payload.ID).To(Equal("p1"))
		Expect(payload.Name).To(Equal("Old Project"))
		Expect(payload.IsEnabled).To(BeFalse())

		Expect(env.attrs.disabledValues).To(HaveLen(1))
		Expect(env.attrs.disabledValues[0]).To(Equal([]string{"Old Project"}))
	})

	It("skips renames whose rendered name did not change", func() {
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeProject, "Same Project", "p1", true))

		count, err := importer.DisableProjects(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Same Project", NewValue: "Same Project"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
		Expect(env.platform.resources).To(BeEmpty())
		Expect(env.attrs.disabledValues).To(BeEmpty())
	})

	It("disables retirements even when the name is unchanged", func() {
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeProject, "Retired Project", "p1", true))

		count, err := importer.DisableProjects(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Retired Project", NewValue: "Retired Project", Retired: true},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("treats a code change as a rename when codes are prefixed", func() {
		cfg.PrependCodeToName = true
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeProject, "10: Travel", "p1", true))

		count, err := importer.DisableProjects(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Travel", NewValue: "Travel", OldCode: "10", NewCode: "20"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
		Expect(env.attrs.disabledValues[0]).To(Equal([]string{"10: Travel"}))
	})

	It("skips values another destination record still carries", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeProject, "Shared Name", "d2", nil))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeProject, "Shared Name", "p1", true))

		count, err := importer.DisableProjects(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Shared Name", NewValue: "Something Else"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
		Expect(env.attrs.disabledValues).To(BeEmpty())
	})

	It("ignores old names with no active platform attribute", func() {
		count, err := importer.DisableProjects(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Never Imported", NewValue: "Renamed"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})

	It("only deactivates the local mirror for merchants", func() {
		cfg.SourceField = attribute.TypeMerchant
		cfg.DestinationField = attribute.TypeVendor
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeMerchant, "Old Vendor", "m1", true))

		count, err := importer.DisableMerchants(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Old Vendor", NewValue: "New Vendor"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
		Expect(env.platform.resources).To(BeEmpty())
		Expect(env.attrs.disabledValues).To(HaveLen(1))
	})

	It("disables categories through the category resource", func() {
		cfg.SourceField = attribute.TypeCategory
		cfg.DestinationField = attribute.TypeAccount
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeCategory, "Old Category", "c1", true))

		count, err := importer.DisableCategories(ctx, env.deps, cfg, map[string]importer.AttributeChange{
			"d1": {OldValue: "Old Category", NewValue: "New Category"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
		res := env.platform.resource(platform.ResourceCategories)
		Expect(res.bulks).To(HaveLen(1))
		payload := res.bulks[0][0].(platform.CategoryPayload)
		Expect(payload.ID).To(Equal("c1"))
		Expect(payload.IsEnabled).To(BeFalse())
	})
})
