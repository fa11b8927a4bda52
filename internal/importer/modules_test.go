package importer_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/connector"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	importlogDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/importlog"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

func seedStaleSuccess(env *testEnv, attributeType string) time.Time {
	old := time.Now().UTC().Add(-2 * time.Hour)
	env.logs.Seed(&importlogDatamodel.ImportLog{
		WorkspaceID:         testWorkspaceID,
		AttributeType:       attributeType,
		Status:              importlogDatamodel.StatusComplete,
		LastSuccessfulRunAt: &old,
	})
	return old
}

func runImport(env *testEnv, cfg importer.Config) {
	imp, err := importer.New(cfg, env.deps)
	Expect(err).NotTo(HaveOccurred())
	Expect(imp.Run(context.Background())).To(Succeed())
}

var _ = Describe("Category import", func() {
	var (
		env *testEnv
		cfg importer.Config
	)

	BeforeEach(func() {
		env = newTestEnv(connector.SyncAccounts, connector.SyncItems, connector.SyncExpenseCategories)
		cfg = importer.Config{
			WorkspaceID:            testWorkspaceID,
			SourceField:            attribute.TypeCategory,
			DestinationField:       attribute.TypeAccount,
			DestinationSyncMethods: []string{connector.SyncAccounts},
			PropagateErrors:        true,
		}
	})

	categoryBulk := func() []any {
		res := env.platform.resource(platform.ResourceCategories)
		Expect(res.bulks).To(HaveLen(1))
		return res.bulks[0]
	}

	It("creates absent categories with their destination code", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil))

		runImport(env, cfg)

		payload := categoryBulk()[0].(platform.CategoryPayload)
		Expect(payload.Name).To(Equal("Travel"))
		Expect(*payload.Code).To(Equal("AC1"))
		Expect(payload.IsEnabled).To(BeTrue())
		Expect(payload.ID).To(BeEmpty())
	})

	It("always enables Unspecified even when retired on the destination side", func() {
		seedStaleSuccess(env, attribute.TypeCategory)
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Unspecified", "AC0", boolPtr(false)))

		runImport(env, cfg)

		payload := categoryBulk()[0].(platform.CategoryPayload)
		Expect(payload.Name).To(Equal("Unspecified"))
		Expect(payload.IsEnabled).To(BeTrue())
	})

	It("never disables an existing Unspecified under auto-sync", func() {
		cfg.AutoSyncEnabled = true
		seedStaleSuccess(env, attribute.TypeCategory)
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Unspecified", "AC0", boolPtr(false)))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeCategory, "Unspecified", "cat0", true))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceCategories)
		Expect(res.bulks).To(BeEmpty())
	})

	It("turns destination deactivations into disable updates under auto-sync", func() {
		cfg.AutoSyncEnabled = true
		seedStaleSuccess(env, attribute.TypeCategory)
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", boolPtr(false)))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeCategory, "travel", "cat1", true))

		runImport(env, cfg)

		payload := categoryBulk()[0].(platform.CategoryPayload)
		Expect(payload.ID).To(Equal("cat1"))
		Expect(payload.Name).To(Equal("travel"))
		Expect(payload.IsEnabled).To(BeFalse())
	})

	It("leaves deactivations alone without auto-sync", func() {
		seedStaleSuccess(env, attribute.TypeCategory)
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", boolPtr(false)))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeCategory, "travel", "cat1", true))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceCategories)
		Expect(res.bulks).To(BeEmpty())
	})

	It("renders code-prefixed names when configured", func() {
		cfg.PrependCodeToName = true
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil))

		runImport(env, cfg)

		payload := categoryBulk()[0].(platform.CategoryPayload)
		Expect(payload.Name).To(Equal("AC1: Travel"))
		Expect(*payload.Code).To(Equal("AC1"))
	})

	It("omits the code when importing without destination ids", func() {
		cfg.ImportWithoutDestinationID = true
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil))

		runImport(env, cfg)

		payload := categoryBulk()[0].(platform.CategoryPayload)
		Expect(payload.Code).To(BeNil())
	})

	It("restricts account-backed imports to the chart-of-accounts allow-list", func() {
		cfg.DestinationSyncMethods = []string{connector.SyncAccounts, connector.SyncItems}
		cfg.ChartsOfAccounts = []string{"Expense"}

		expense := destAttr(1, attribute.TypeAccount, "Meals", "AC1", nil)
		expense.DisplayName = attribute.DisplayNameAccount
		expense.Detail = attributeDatamodel.JSONMap{"account_type": "Expense"}

		income := destAttr(2, attribute.TypeAccount, "Interest", "AC2", nil)
		income.DisplayName = attribute.DisplayNameAccount
		income.Detail = attributeDatamodel.JSONMap{"account_type": "Income"}

		item := destAttr(3, attribute.TypeAccount, "Widget", "IT1", nil)
		item.DisplayName = attribute.DisplayNameItem

		env.attrs.destinations = append(env.attrs.destinations, expense, income, item)

		runImport(env, cfg)

		bulk := categoryBulk()
		Expect(bulk).To(HaveLen(2))
		names := []string{
			bulk[0].(platform.CategoryPayload).Name,
			bulk[1].(platform.CategoryPayload).Name,
		}
		Expect(names).To(ConsistOf("Meals", "Widget"))
	})

	It("collapses case-insensitive duplicates within a page", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil),
			destAttr(2, attribute.TypeAccount, "travel", "AC2", nil),
		)

		runImport(env, cfg)

		Expect(categoryBulk()).To(HaveLen(1))
	})

	It("links category mappings and the corporate-card pass in 3D mode", func() {
		cfg.Is3DMapping = true
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil))
		env.mappings.unmapped = []*attributeDatamodel.DestinationAttribute{
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil),
		}

		runImport(env, cfg)

		Expect(env.mappings.categoryMappingCalls).To(HaveLen(1))
		Expect(env.mappings.categoryMappingCalls[0].destinationType).To(Equal(attribute.TypeAccount))
		Expect(env.mappings.cccCalls).To(Equal(1))
		Expect(env.mappings.mappingCalls).To(BeEmpty())
	})

	It("routes through the generic mapping table when configured", func() {
		cfg.UseMappingTable = true
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil))

		runImport(env, cfg)

		Expect(env.mappings.categoryMappingCalls).To(BeEmpty())
		Expect(env.mappings.mappingCalls).To(HaveLen(1))
		Expect(env.mappings.mappingCalls[0].sourceType).To(Equal(attribute.TypeCategory))
	})

	It("resolves recorded mapping errors that new mappings satisfy", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeAccount, "Travel", "AC1", nil))
		env.mappings.unresolvedIDs = []int64{11, 12}
		env.mappings.mappedCategory = []int64{11}

		runImport(env, cfg)

		Expect(env.mappings.resolvedIDs).To(HaveLen(1))
		Expect(env.mappings.resolvedIDs[0]).To(Equal([]int64{11}))
	})
})

var _ = Describe("Cost center import", func() {
	var (
		env *testEnv
		cfg importer.Config
	)

	BeforeEach(func() {
		env = newTestEnv(connector.SyncCostCenters)
		cfg = importer.Config{
			WorkspaceID:            testWorkspaceID,
			SourceField:            attribute.TypeCostCenter,
			DestinationField:       attribute.TypeCostCenter,
			DestinationSyncMethods: []string{connector.SyncCostCenters},
			PropagateErrors:        true,
		}
	})

	It("creates absent cost centers with a descriptive payload", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeCostCenter, "Engineering", "CC1", nil))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceCostCenters)
		Expect(res.bulks).To(HaveLen(1))
		payload := res.bulks[0][0].(platform.CostCenterPayload)
		Expect(payload.Name).To(Equal("Engineering"))
		Expect(payload.Description).To(Equal("Cost Center - Engineering, Id - CC1"))
		Expect(payload.IsEnabled).To(BeTrue())
	})

	It("does not create a near-duplicate of an existing value with different casing", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeCostCenter, "Sales", "CC1", nil))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeCostCenter, "sales", "cc_src1", true))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceCostCenters)
		Expect(res.bulks).To(BeEmpty())
	})

	It("reuses the platform id and casing when disabling under auto-sync", func() {
		cfg.AutoSyncEnabled = true
		seedStaleSuccess(env, attribute.TypeCostCenter)
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeCostCenter, "Sales", "CC1", boolPtr(false)))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeCostCenter, "sales", "cc_src1", true))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceCostCenters)
		payload := res.bulks[0][0].(platform.CostCenterPayload)
		Expect(payload.ID).To(Equal("cc_src1"))
		Expect(payload.Name).To(Equal("sales"))
		Expect(payload.IsEnabled).To(BeFalse())
	})
})

var _ = Describe("Tax group import", func() {
	var (
		env *testEnv
		cfg importer.Config
	)

	BeforeEach(func() {
		env = newTestEnv(connector.SyncTaxCodes)
		cfg = importer.Config{
			WorkspaceID:            testWorkspaceID,
			SourceField:            attribute.TypeTaxGroup,
			DestinationField:       "TAX_CODE",
			DestinationSyncMethods: []string{connector.SyncTaxCodes},
			PropagateErrors:        true,
		}
	})

	It("converts destination rates to rounded fractional percentages", func() {
		gst := destAttr(1, "TAX_CODE", "GST 8.5", "T1", nil)
		gst.Detail = attributeDatamodel.JSONMap{"tax_rate": 8.5}
		vat := destAttr(2, "TAX_CODE", "VAT 20", "T2", nil)
		vat.Detail = attributeDatamodel.JSONMap{"tax_rate": 20.0}
		env.attrs.destinations = append(env.attrs.destinations, gst, vat)

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceTaxGroups)
		Expect(res.bulks).To(HaveLen(1))
		Expect(res.bulks[0]).To(HaveLen(2))

		first := res.bulks[0][0].(platform.TaxGroupPayload)
		Expect(first.Name).To(Equal("GST 8.5"))
		Expect(first.Percentage).To(BeNumerically("==", 0.09))

		second := res.bulks[0][1].(platform.TaxGroupPayload)
		Expect(second.Percentage).To(BeNumerically("==", 0.2))
	})

	It("skips destination records without a tax rate", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, "TAX_CODE", "No Rate", "T1", nil))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceTaxGroups)
		Expect(res.bulks).To(BeEmpty())
	})

	It("never updates tax groups that already exist", func() {
		gst := destAttr(1, "TAX_CODE", "GST 8.5", "T1", nil)
		gst.Detail = attributeDatamodel.JSONMap{"tax_rate": 8.5}
		env.attrs.destinations = append(env.attrs.destinations, gst)
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeTaxGroup, "gst 8.5", "tg1", true))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceTaxGroups)
		Expect(res.bulks).To(BeEmpty())
	})
})

var _ = Describe("Merchant import", func() {
	var (
		env *testEnv
		cfg importer.Config
	)

	BeforeEach(func() {
		env = newTestEnv(connector.SyncVendors)
		cfg = importer.Config{
			WorkspaceID:            testWorkspaceID,
			SourceField:            attribute.TypeMerchant,
			DestinationField:       attribute.TypeVendor,
			DestinationSyncMethods: []string{connector.SyncVendors},
			PropagateErrors:        true,
		}
	})

	It("posts the union of both sides minus inactive values in one call", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeVendor, "Amazon", "V1", nil),
			destAttr(2, attribute.TypeVendor, "Zelle", "V2", nil),
		)
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeMerchant, "Staples", "m1", true),
			expAttr(11, attribute.TypeMerchant, "Uber", "m2", false),
		)

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceMerchants)
		Expect(res.posted).To(HaveLen(1))
		Expect(res.bulks).To(BeEmpty())

		payload := res.posted[0].(platform.MerchantPayload)
		Expect(payload.Options).To(Equal([]string{"Amazon", "Zelle", "Staples"}))
	})

	It("keeps the first-seen casing for values present on both sides", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeVendor, "AMAZON", "V1", nil))
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeMerchant, "Amazon", "m1", true))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceMerchants)
		payload := res.posted[0].(platform.MerchantPayload)
		Expect(payload.Options).To(Equal([]string{"AMAZON"}))
	})

	It("posts nothing when the union is empty", func() {
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, attribute.TypeMerchant, "Uber", "m1", false))

		runImport(env, cfg)

		res := env.platform.resource(platform.ResourceMerchants)
		Expect(res.posted).To(BeEmpty())
	})

	It("does not create mappings", func() {
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, attribute.TypeVendor, "Amazon", "V1", nil))

		runImport(env, cfg)

		Expect(env.mappings.mappingCalls).To(BeEmpty())
		Expect(env.mappings.categoryMappingCalls).To(BeEmpty())
	})
})

var _ = Describe("Custom field import", func() {
	var (
		env *testEnv
		cfg importer.Config
	)

	BeforeEach(func() {
		env = newTestEnv(connector.SyncCustomFields)
		cfg = importer.Config{
			WorkspaceID:            testWorkspaceID,
			SourceField:            "TEAM_NAME",
			DestinationField:       "TEAM_NAME",
			DestinationSyncMethods: []string{connector.SyncCustomFields},
			IsCustom:               true,
			PropagateErrors:        true,
		}
		env.attrs.destinations = append(env.attrs.destinations,
			destAttr(1, "TEAM_NAME", "Alpha Squad", "O1", nil),
			destAttr(2, "TEAM_NAME", "Beta Squad", "O2", nil),
		)
	})

	fieldPayload := func() platform.ExpenseFieldPayload {
		res := env.platform.resource(platform.ResourceExpenseCustomFields)
		Expect(res.posted).To(HaveLen(1))
		return res.posted[0].(platform.ExpenseFieldPayload)
	}

	It("posts one SELECT field with the title-cased display name", func() {
		runImport(env, cfg)

		payload := fieldPayload()
		Expect(payload.FieldName).To(Equal("Team Name"))
		Expect(payload.Type).To(Equal("SELECT"))
		Expect(payload.IsEnabled).To(BeTrue())
		Expect(payload.Options).To(Equal([]string{"Alpha Squad", "Beta Squad"}))
	})

	It("defaults the placeholder from the field name", func() {
		runImport(env, cfg)

		Expect(fieldPayload().Placeholder).To(Equal("Select Team Name"))
	})

	It("prefers the configured placeholder over everything else", func() {
		cfg.SourcePlaceholder = "Choose your team"
		stored := expAttr(10, "TEAM_NAME", "Alpha Squad", "456:Alpha Squad", true)
		stored.Detail = attributeDatamodel.JSONMap{"placeholder": "Pick a team"}
		env.attrs.expense = append(env.attrs.expense, stored)

		runImport(env, cfg)

		Expect(fieldPayload().Placeholder).To(Equal("Choose your team"))
	})

	It("reuses the stored field id and the live mandatory flag on re-posts", func() {
		stored := expAttr(10, "TEAM_NAME", "Alpha Squad", "456:Alpha Squad", true)
		stored.Detail = attributeDatamodel.JSONMap{
			"custom_field_id": "456",
			"placeholder":     "Pick a team",
		}
		env.attrs.expense = append(env.attrs.expense, stored)
		env.platform.resource(platform.ResourceExpenseCustomFields).byID["456"] = map[string]any{
			"is_mandatory": true,
		}

		runImport(env, cfg)

		payload := fieldPayload()
		Expect(payload.ID).To(Equal("456"))
		Expect(payload.IsMandatory).To(BeTrue())
		Expect(payload.Placeholder).To(Equal("Pick a team"))
	})

	It("carries platform-only options forward and drops inactive ones", func() {
		env.attrs.expense = append(env.attrs.expense,
			expAttr(10, "TEAM_NAME", "Gamma Squad", "456:Gamma Squad", true),
			expAttr(11, "TEAM_NAME", "Retired Squad", "456:Retired Squad", false),
		)

		runImport(env, cfg)

		Expect(fieldPayload().Options).To(Equal([]string{"Alpha Squad", "Beta Squad", "Gamma Squad"}))
	})

	It("posts one object for the whole option set even past the page size", func() {
		env.attrs.destinations = nil
		for i := 1; i <= 201; i++ {
			env.attrs.destinations = append(env.attrs.destinations,
				destAttr(int64(i), "TEAM_NAME", fmt.Sprintf("Team %03d", i), fmt.Sprintf("O%03d", i), nil))
		}

		runImport(env, cfg)

		payload := fieldPayload()
		Expect(payload.Options).To(HaveLen(201))
		Expect(payload.Options[0]).To(Equal("Team 001"))
		Expect(payload.Options[200]).To(Equal("Team 201"))

		log := env.logs.logs[logKey(testWorkspaceID, "TEAM_NAME")]
		Expect(log.TotalBatchesCount).To(Equal(1))
		Expect(log.ProcessedBatchesCount).To(Equal(1))
		Expect(log.Status).To(Equal(importlogDatamodel.StatusComplete))
	})
})
