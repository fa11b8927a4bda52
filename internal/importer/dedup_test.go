package importer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
)

var _ = Describe("RemoveDuplicates", func() {
	It("collapses case-insensitive collisions keeping the first occurrence", func() {
		page := []*attributeDatamodel.DestinationAttribute{
			destAttr(1, attribute.TypeProject, "Travel", "P1", nil),
			destAttr(2, attribute.TypeProject, "travel", "P2", nil),
			destAttr(3, attribute.TypeProject, "Meals", "P3", nil),
			destAttr(4, attribute.TypeProject, "TRAVEL", "P4", nil),
		}

		unique := importer.RemoveDuplicates(page, false)

		Expect(unique).To(HaveLen(2))
		Expect(unique[0].Value).To(Equal("Travel"))
		Expect(unique[0].DestinationID).To(Equal("P1"))
		Expect(unique[1].Value).To(Equal("Meals"))
	})

	It("treats code-prefixed renderings as the comparison value", func() {
		page := []*attributeDatamodel.DestinationAttribute{
			destAttr(1, attribute.TypeProject, "Travel", "10", nil),
			destAttr(2, attribute.TypeProject, "travel", "10", nil),
			destAttr(3, attribute.TypeProject, "Travel", "20", nil),
		}

		unique := importer.RemoveDuplicates(page, true)

		Expect(unique).To(HaveLen(2))
		Expect(unique[0].Value).To(Equal("10: Travel"))
		Expect(unique[1].Value).To(Equal("20: Travel"))
	})

	It("does not mutate the input attributes", func() {
		page := []*attributeDatamodel.DestinationAttribute{
			destAttr(1, attribute.TypeProject, "Travel", "10", nil),
		}

		unique := importer.RemoveDuplicates(page, true)

		Expect(unique[0].Value).To(Equal("10: Travel"))
		Expect(page[0].Value).To(Equal("Travel"))
	})

	It("returns an already-unique page unchanged", func() {
		page := []*attributeDatamodel.DestinationAttribute{
			destAttr(1, attribute.TypeProject, "Alpha", "P1", nil),
			destAttr(2, attribute.TypeProject, "Beta", "P2", nil),
		}

		first := importer.RemoveDuplicates(page, false)
		second := importer.RemoveDuplicates(first, false)

		Expect(second).To(HaveLen(2))
		Expect(second[0].Value).To(Equal("Alpha"))
		Expect(second[1].Value).To(Equal("Beta"))
	})

	It("keeps inactive records so reconcilers can see deactivations", func() {
		page := []*attributeDatamodel.DestinationAttribute{
			destAttr(1, attribute.TypeProject, "Alpha", "P1", boolPtr(false)),
		}

		unique := importer.RemoveDuplicates(page, false)

		Expect(unique).To(HaveLen(1))
		Expect(unique[0].IsActive()).To(BeFalse())
	})
})
