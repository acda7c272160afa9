package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaed/internal/dsl"
	"metaed/internal/model"
	"metaed/internal/validation"
)

func build(t *testing.T, src string, syntaxValidation bool) *Environment {
	t.Helper()
	env := NewEnvironment(nil)
	require.NoError(t, dsl.ParseString("test.metaed", src, env.Dispatcher(syntaxValidation)))
	return env
}

func namespace(t *testing.T, env *Environment, name string) *model.Namespace {
	t.Helper()
	ns, ok := env.Registry.Get(name)
	require.True(t, ok, "namespace %s", name)
	return ns
}

func topLevelEntity(t *testing.T, ns *model.Namespace, kind model.Kind, name string) *model.TopLevelEntity {
	t.Helper()
	e, ok := model.Lookup[*model.TopLevelEntity](ns.Entities, kind, name)
	require.True(t, ok, "%s %s", kind, name)
	return e
}

func TestAssociationExtensionEndToEnd(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("Namespace", "ProjectExtension").
		StartAssociationExtension("EntityName").WithMetaEdID("1").
		WithProperty("integer", "PropertyName").WithDocumentation("doc").WithRequired().EndProperty().
		EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	require.Zero(t, env.Failures.Len())

	ns := namespace(t, env, "Namespace")
	assert.Equal(t, "ProjectExtension", ns.ProjectExtension)
	require.Equal(t, 1, ns.Entities.Count(model.KindAssociationExtension))

	e := topLevelEntity(t, ns, model.KindAssociationExtension, "EntityName")
	assert.Equal(t, "EntityName", e.Name)
	assert.Equal(t, "1", e.MetaEdID)
	assert.Equal(t, "Namespace", e.NamespaceName)
	assert.Equal(t, "ProjectExtension", e.ProjectExtension)
	assert.Equal(t, "EntityName", e.BaseEntityName)
	assert.Equal(t, "Namespace", e.BaseEntityNamespaceName)

	require.Len(t, e.Properties, 1)
	p := e.Properties[0]
	assert.Equal(t, model.PropInteger, p.Kind)
	assert.Equal(t, "PropertyName", p.Name)
	assert.True(t, p.IsRequired)
	assert.Equal(t, "doc", p.Documentation)
	assert.Equal(t, 1, env.Properties.Len())

	// без ограничений тип не порождается
	assert.Zero(t, ns.Entities.Count(model.KindIntegerType))
}

func TestDuplicateEntityFirstWins(t *testing.T) {
	tb := dsl.NewTextBuilder().BeginNamespace("Namespace", "")
	firstLine := tb.LineCount() + 1
	tb.StartDomainEntity("EntityName").WithDocumentation("first").
		WithProperty("bool", "First").WithRequired().EndProperty().
		EndEntity()
	secondLine := tb.LineCount() + 1
	tb.StartDomainEntity("EntityName").WithDocumentation("second").
		WithProperty("bool", "Second").WithRequired().EndProperty().
		EndEntity().
		EndNamespace()

	env := build(t, tb.String(), false)
	ns := namespace(t, env, "Namespace")
	require.Equal(t, 1, ns.Entities.Count(model.KindDomainEntity))

	e := topLevelEntity(t, ns, model.KindDomainEntity, "EntityName")
	assert.Equal(t, "first", e.Documentation)
	require.Len(t, e.Properties, 1)
	assert.Equal(t, "First", e.Properties[0].Name)

	failures := env.Failures.All()
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.Equal(t, validation.CategoryError, f.Category)
		assert.Equal(t, TopLevelEntityBuilderName, f.ValidatorName)
		assert.Equal(t, "Domain Entity named EntityName is a duplicate declaration of that name.", f.Message)
	}
	assert.Equal(t, secondLine, failures[0].Source.Line)
	assert.Equal(t, firstLine, failures[1].Source.Line)
	assert.Equal(t, 16, failures[0].Source.Column)
	assert.Equal(t, "EntityName", failures[0].Source.Text)
}

func TestDuplicateAcrossKindsAndNamespacesIsAllowed(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartDomainEntity("Name").EndEntity().
		StartAssociation("Name").EndEntity().
		StartCommon("Name").EndEntity().
		EndNamespace().
		BeginNamespace("Sample", "Sample").
		StartDomainEntity("Name").EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	assert.Zero(t, env.Failures.Len())
	assert.Equal(t, 3, namespace(t, env, "EdFi").Entities.Len())
	assert.Equal(t, 1, namespace(t, env, "Sample").Entities.Len())
}

func TestDuplicateSharedShortIsHumanized(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartSharedShort("Count").WithMaxValue("10").EndEntity().
		StartSharedShort("Count").WithMaxValue("20").EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	ns := namespace(t, env, "EdFi")

	shared, ok := model.Lookup[*model.SharedSimpleType](ns.Entities, model.KindSharedInteger, "Count")
	require.True(t, ok)
	assert.True(t, shared.IsShort)
	assert.Equal(t, "10", shared.MaxValue)

	// повтор виден и в shared, и в таблице типов
	errs := env.Failures.Errors()
	require.Len(t, errs, 4)
	assert.Equal(t, "Shared Short named Count is a duplicate declaration of that name.", errs[0].Message)
	assert.Equal(t, "Integer Type named Count is a duplicate declaration of that name.", errs[2].Message)
}

func TestPropertyCompositeIdentity(t *testing.T) {
	t.Run("different context keeps both", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartAssociation("EntityName").
			WithProperty("domain entity", "A").EndProperty().
			WithProperty("domain entity", "B").EndProperty().
			WithProperty("integer", "Score").WithRoleName("Final", "").WithRequired().EndProperty().
			WithProperty("integer", "Score").WithRoleName("Initial", "").WithRequired().EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Zero(t, env.Failures.Len())
		e := topLevelEntity(t, namespace(t, env, "EdFi"), model.KindAssociation, "EntityName")
		require.Len(t, e.Properties, 4)
		assert.Equal(t, "FinalScore", e.Properties[2].FullName())
		assert.Equal(t, "InitialScore", e.Properties[3].FullName())
	})

	t.Run("same name and context is a duplicate", func(t *testing.T) {
		tb := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("EntityName")
		firstLine := tb.LineCount() + 1
		tb.WithProperty("integer", "Score").WithRoleName("Final", "").WithDocumentation("first").WithRequired().EndProperty()
		secondLine := tb.LineCount() + 1
		tb.WithProperty("string", "Score").WithRoleName("Final", "").WithDocumentation("second").WithRequired().EndProperty().
			EndEntity().
			EndNamespace()

		env := build(t, tb.String(), false)
		e := topLevelEntity(t, namespace(t, env, "EdFi"), model.KindDomainEntity, "EntityName")
		require.Len(t, e.Properties, 1)
		assert.Equal(t, "first", e.Properties[0].Documentation)

		failures := env.Failures.Errors()
		require.Len(t, failures, 2)
		msg := "Property named Score is a duplicate declaration of that name. Use 'role name' keyword to avoid naming collisions."
		assert.Equal(t, msg, failures[0].Message)
		assert.Equal(t, msg, failures[1].Message)
		assert.Equal(t, secondLine, failures[0].Source.Line)
		assert.Equal(t, firstLine, failures[1].Source.Line)
		assert.Equal(t, 1, env.Properties.Len())
	})

	t.Run("role name equal to the name is no context", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("EntityName").
			WithProperty("integer", "Score").WithRequired().EndProperty().
			WithProperty("integer", "Score").WithRoleName("Score", "").WithRequired().EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Len(t, env.Failures.Errors(), 2)
	})

	// shorten to входит в составной ключ
	t.Run("different shorten to keeps both", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartAssociation("EntityName").
			WithProperty("domain entity", "A").EndProperty().
			WithProperty("domain entity", "B").EndProperty().
			WithProperty("string", "Name").WithRoleName("Ctx", "Short1").WithRequired().EndProperty().
			WithProperty("string", "Name").WithRoleName("Ctx", "Short2").WithRequired().EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Zero(t, env.Failures.Len())
		e := topLevelEntity(t, namespace(t, env, "EdFi"), model.KindAssociation, "EntityName")
		assert.Len(t, e.Properties, 4)
	})

	t.Run("kinds share one index", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("EntityName").
			WithProperty("bool", "Thing").WithRequired().EndProperty().
			WithProperty("common", "Thing").WithRequired().EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Len(t, env.Failures.Errors(), 2)
	})

	// queryable only участвует в проверке повторов
	t.Run("queryable only still collides", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("EntityName").
			WithProperty("string", "Code").WithRequired().EndProperty().
			WithProperty("string", "Code").WithQueryableOnly().EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Len(t, env.Failures.Errors(), 2)
		e := topLevelEntity(t, namespace(t, env, "EdFi"), model.KindDomainEntity, "EntityName")
		assert.Len(t, e.Properties, 1)
		assert.Empty(t, e.QueryableFields)
	})

	t.Run("restricted properties with different context keep both types", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("Sample", "Sample").
			StartDomainEntity("EntityName").
			WithProperty("integer", "Count").WithRoleName("First", "").WithRequired().WithMaxValue("100").EndProperty().
			WithProperty("integer", "Count").WithRoleName("Second", "").WithRequired().WithMaxValue("200").EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Zero(t, env.Failures.Len())
		ns := namespace(t, env, "Sample")
		assert.Len(t, topLevelEntity(t, ns, model.KindDomainEntity, "EntityName").Properties, 2)
		require.Equal(t, 2, ns.Entities.Count(model.KindIntegerType))

		first, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "Sample-FirstCount")
		require.True(t, ok)
		assert.Equal(t, "100", first.MaxValue)
		second, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "Sample-SecondCount")
		require.True(t, ok)
		assert.Equal(t, "200", second.MaxValue)
	})

	t.Run("restricted duplicate reports only the property", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("EntityName").
			WithProperty("integer", "Count").WithRequired().WithMaxValue("100").EndProperty().
			WithProperty("integer", "Count").WithRequired().WithMaxValue("200").EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		failures := env.Failures.Errors()
		require.Len(t, failures, 2)
		assert.Contains(t, failures[0].Message, "Property named Count")
		assert.Equal(t, failures[0].Message, failures[1].Message)

		ns := namespace(t, env, "EdFi")
		require.Equal(t, 1, ns.Entities.Count(model.KindIntegerType))
		kept, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "-Count")
		require.True(t, ok)
		assert.Equal(t, "100", kept.MaxValue)
	})

	t.Run("rejected entity generates no types", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("Student").
			WithProperty("bool", "Flag").WithRequired().EndProperty().
			EndEntity().
			StartDomainEntity("Student").
			WithProperty("string", "Code").WithRequired().WithMaxLength("10").EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		require.Len(t, env.Failures.Errors(), 2)
		ns := namespace(t, env, "EdFi")
		assert.Zero(t, ns.Entities.Count(model.KindStringType))
		assert.Equal(t, 1, env.Properties.Len())
		assert.Empty(t, env.Properties.ByKind(model.PropString))
	})
}

func TestCrossNamespaceBaseResolution(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("Namespace", "ProjectExtension").
		StartDomainEntitySubclass("EntityName", "EdFi.BaseEntityName").EndEntity().
		StartAssociationSubclass("LocalSub", "BaseEntityName").EndEntity().
		StartDomainEntityExtension("EdFi.Student").EndEntity().
		StartCommonSubclass("CommonSub", "Other.Base").EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	require.Zero(t, env.Failures.Len())
	ns := namespace(t, env, "Namespace")

	sub := topLevelEntity(t, ns, model.KindDomainEntitySubclass, "EntityName")
	assert.Equal(t, "BaseEntityName", sub.BaseEntityName)
	assert.Equal(t, "EdFi", sub.BaseEntityNamespaceName)

	local := topLevelEntity(t, ns, model.KindAssociationSubclass, "LocalSub")
	assert.Equal(t, "BaseEntityName", local.BaseEntityName)
	assert.Equal(t, "Namespace", local.BaseEntityNamespaceName)

	ext := topLevelEntity(t, ns, model.KindDomainEntityExtension, "Student")
	assert.Equal(t, "Student", ext.BaseEntityName)
	assert.Equal(t, "EdFi", ext.BaseEntityNamespaceName)

	// существование базы не проверяется
	other := topLevelEntity(t, ns, model.KindCommonSubclass, "CommonSub")
	assert.Equal(t, "Other", other.BaseEntityNamespaceName)
}

func TestSimpleTypeMaterialization(t *testing.T) {
	t.Run("inline restriction generates a type", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("Namespace", "ProjectExtension").
			StartDomainEntity("EntityName").
			WithProperty("integer", "PropertyName").WithMetaEdID("5").WithDocumentation("doc").WithRequired().WithMaxValue("100").EndProperty().
			WithProperty("short", "ShortName").WithRequired().WithMinValue("1").EndProperty().
			WithProperty("bool", "Flag").WithRequired().EndProperty().
			EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		require.Zero(t, env.Failures.Len())
		ns := namespace(t, env, "Namespace")
		require.Equal(t, 2, ns.Entities.Count(model.KindIntegerType))

		it, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "ProjectExtension-PropertyName")
		require.True(t, ok)
		assert.True(t, it.Generated)
		assert.False(t, it.IsShort)
		assert.Equal(t, "100", it.MaxValue)
		assert.Equal(t, "5", it.MetaEdID)
		assert.Equal(t, "doc", it.Documentation)
		assert.Equal(t, "Integer Type", it.Humanized())

		st, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "ProjectExtension-ShortName")
		require.True(t, ok)
		assert.True(t, st.IsShort)
	})

	t.Run("shared declarations project without the generated flag", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartSharedDecimal("Money").WithDocumentation("money").WithTotalDigits("9").WithDecimalPlaces("2").EndEntity().
			StartSharedString("Code").WithMinLength("1").WithMaxLength("60").EndEntity().
			StartSharedInteger("Count").EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		require.Zero(t, env.Failures.Len())
		ns := namespace(t, env, "EdFi")

		dt, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindDecimalType, "-Money")
		require.True(t, ok)
		assert.False(t, dt.Generated)
		assert.Equal(t, "9", dt.TotalDigits)
		assert.Equal(t, "2", dt.DecimalPlaces)
		assert.Equal(t, "money", dt.Documentation)

		str, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindStringType, "-Code")
		require.True(t, ok)
		assert.Equal(t, "60", str.MaxLength)

		// shared без ограничений всё равно проецируется
		_, ok = ns.Entities.Get(model.KindIntegerType, "-Count")
		assert.True(t, ok)

		shared, ok := model.Lookup[*model.SharedSimpleType](ns.Entities, model.KindSharedDecimal, "Money")
		require.True(t, ok)
		assert.Equal(t, "9", shared.TotalDigits)
	})

	t.Run("shared and inline with the same name collide", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartDomainEntity("EntityName").
			WithProperty("integer", "Count").WithRequired().WithMaxValue("100").EndProperty().
			EndEntity().
			StartSharedInteger("Count").WithMaxValue("5").EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		ns := namespace(t, env, "EdFi")
		require.Equal(t, 1, ns.Entities.Count(model.KindIntegerType))

		kept, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "-Count")
		require.True(t, ok)
		assert.True(t, kept.Generated)
		assert.Equal(t, "100", kept.MaxValue)

		errs := env.Failures.Errors()
		require.Len(t, errs, 2)
		assert.Equal(t, "Integer Type named Count is a duplicate declaration of that name.", errs[0].Message)
		assert.Equal(t, errs[0].Message, errs[1].Message)

		// сама Shared Integer регистрируется
		assert.Equal(t, 1, ns.Entities.Count(model.KindSharedInteger))
	})

	t.Run("same name in sibling namespaces is fine", func(t *testing.T) {
		src := dsl.NewTextBuilder().
			BeginNamespace("EdFi", "").
			StartSharedInteger("Count").WithMaxValue("5").EndEntity().
			EndNamespace().
			BeginNamespace("Sample", "Sample").
			StartSharedInteger("Count").WithMaxValue("5").EndEntity().
			EndNamespace().
			String()

		env := build(t, src, false)
		assert.Zero(t, env.Failures.Len())
		_, ok := namespace(t, env, "Sample").Entities.Get(model.KindIntegerType, "Sample-Count")
		assert.True(t, ok)
	})
}

func TestBigValueHint(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartSharedInteger("Huge").WithMinValueBig().WithMaxValue("10").EndEntity().
		StartDomainEntity("EntityName").
		WithProperty("integer", "Amount").WithRequired().WithMaxValueBig().EndProperty().
		EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	require.Zero(t, env.Failures.Len())
	ns := namespace(t, env, "EdFi")

	shared, ok := model.Lookup[*model.SharedSimpleType](ns.Entities, model.KindSharedInteger, "Huge")
	require.True(t, ok)
	assert.True(t, shared.HasBigHint)
	assert.Empty(t, shared.MinValue)
	assert.Equal(t, "10", shared.MaxValue)

	huge, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "-Huge")
	require.True(t, ok)
	assert.True(t, huge.HasBigHint)
	assert.Empty(t, huge.MinValue)

	amount, ok := model.Lookup[*model.SimpleType](ns.Entities, model.KindIntegerType, "-Amount")
	require.True(t, ok)
	assert.True(t, amount.Generated)
	assert.True(t, amount.HasBigHint)
	assert.Empty(t, amount.MaxValue)

	e := topLevelEntity(t, ns, model.KindDomainEntity, "EntityName")
	assert.True(t, e.Properties[0].HasBigHint)
}

func TestAdvisoryValidatorDoesNotChangeTheModel(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartSharedShort("Count").WithMaxValue("10").EndEntity().
		StartDomainEntity("A").
		WithProperty("short", "S").WithRequired().EndProperty().
		WithProperty("short", "S").WithRequired().EndProperty().
		WithProperty("domain entity", "B").WithWeak().WithPotentiallyLogical().WithRequired().EndProperty().
		WithProperty("string", "Q").WithQueryableOnly().EndProperty().
		EndEntity().
		StartDomainEntity("A").EndEntity().
		EndNamespace().
		String()

	plain := build(t, src, false)
	checked := build(t, src, true)

	for _, env := range []*Environment{plain, checked} {
		ns := namespace(t, env, "EdFi")
		assert.Equal(t, 1, ns.Entities.Count(model.KindDomainEntity))
		assert.Equal(t, 1, ns.Entities.Count(model.KindSharedInteger))
		assert.Len(t, topLevelEntity(t, ns, model.KindDomainEntity, "A").Properties, 2)
	}
	assert.Equal(t, plain.Registry.Entities(), checked.Registry.Entities())
	assert.Equal(t, plain.Failures.Errors(), checked.Failures.Errors())
	assert.Empty(t, plain.Failures.Warnings())
	// short x2, shared short, is weak, potentially logical, is queryable only
	assert.Len(t, checked.Failures.Warnings(), 6)
}

func TestPropertyDetails(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("Sample", "Sample").
		StartDomainEntity("Student").WithMetaEdID("10").
		WithDocumentation("a student").
		WithDeprecated("use Person").
		WithCascadeUpdate().
		WithProperty("string", "StudentId").WithMetaEdID("11").WithDocumentation("id").WithIdentity().WithMaxLength("30").EndProperty().
		WithSharedProperty("decimal", "EdFi.Money", "").WithDocumentation("cash").WithOptional().EndProperty().
		WithSharedProperty("string", "Name", "FirstName").WithDocumentation("first").WithRequired().EndProperty().
		WithProperty("enumeration", "SchoolYear").WithDocumentation("year").WithRequired().EndProperty().
		WithProperty("domain entity", "EdFi.School").WithInheritedDocumentation().WithRequired().
		WithMergeDirective("School.LocalEducationAgency", "LocalEducationAgency").EndProperty().
		WithProperty("string", "Nickname").WithDocumentation("n").WithQueryableField().WithOptional().EndProperty().
		WithProperty("string", "Secret").WithDocumentation("s").WithQueryableOnly().EndProperty().
		WithProperty("common", "Address").WithDocumentation("a").WithRequiredCollection().EndProperty().
		WithProperty("common extension", "EdFi.Contact").WithOptional().EndProperty().
		WithProperty("domain entity", "Parent").WithDocumentation("p").WithIdentityRename("Person").EndProperty().
		EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	require.Zero(t, env.Failures.Len())
	e := topLevelEntity(t, namespace(t, env, "Sample"), model.KindDomainEntity, "Student")

	assert.Equal(t, "10", e.MetaEdID)
	assert.Equal(t, "a student", e.Documentation)
	assert.True(t, e.IsDeprecated)
	assert.Equal(t, "use Person", e.DeprecationReason)
	assert.True(t, e.AllowPrimaryKeyUpdates)

	byName := map[string]*model.Property{}
	var names []string
	for _, p := range e.Properties {
		byName[p.Name] = p
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"StudentId", "Money", "FirstName", "SchoolYear", "School", "Nickname", "Address", "Contact", "Parent",
	}, names, "queryable only stays out of properties")

	id := byName["StudentId"]
	assert.Equal(t, "11", id.MetaEdID)
	assert.True(t, id.IsPartOfIdentity)
	assert.Equal(t, "30", id.MaxLength)

	money := byName["Money"]
	assert.Equal(t, model.PropSharedDecimal, money.Kind)
	assert.Equal(t, "Money", money.ReferencedType)
	assert.Equal(t, "EdFi", money.ReferencedNamespaceName)

	first := byName["FirstName"]
	assert.Equal(t, "Name", first.ReferencedType)
	assert.Equal(t, "Sample", first.ReferencedNamespaceName)

	assert.Equal(t, model.PropSchoolYearEnumeration, byName["SchoolYear"].Kind)

	school := byName["School"]
	assert.Equal(t, "EdFi", school.ReferencedNamespaceName)
	assert.True(t, school.DocumentationInherited)
	require.Len(t, school.MergeDirectives, 1)
	assert.Equal(t, "School.LocalEducationAgency", school.MergeDirectives[0].SourcePath)
	assert.Equal(t, "LocalEducationAgency", school.MergeDirectives[0].TargetPath)

	assert.True(t, byName["Address"].IsRequiredCollection)
	assert.True(t, byName["Contact"].IsExtensionOverride)
	assert.Equal(t, model.PropCommon, byName["Contact"].Kind)

	parent := byName["Parent"]
	assert.True(t, parent.IsIdentityRename)
	assert.Equal(t, "Person", parent.BaseKeyName)

	assert.Equal(t, []string{"StudentId", "Parent"}, e.IdentityNames())
	require.Len(t, e.QueryableFields, 2)
	assert.Equal(t, "Nickname", e.QueryableFields[0].Name)
	assert.Equal(t, "Secret", e.QueryableFields[1].Name)

	assert.Len(t, env.Properties.ByKind(model.PropString), 3)
	assert.Equal(t, 10, env.Properties.Len())
}

func TestAssociationDefiningEntitiesAreIdentity(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartAssociation("StudentSchool").
		WithProperty("domain entity", "Student").WithDocumentation("s").EndProperty().
		WithProperty("domain entity", "School").WithDocumentation("s").EndProperty().
		WithProperty("domain entity", "Program").WithDocumentation("p").WithOptional().EndProperty().
		EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	e := topLevelEntity(t, namespace(t, env, "EdFi"), model.KindAssociation, "StudentSchool")
	require.Len(t, e.Properties, 3)
	assert.Equal(t, []string{"Student", "School"}, e.IdentityNames())
	assert.False(t, e.Properties[2].IsPartOfIdentity)
}

func TestOtherFamilies(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartAbstractEntity("Person").WithDocumentation("p").
		WithProperty("string", "Name").WithIdentity().WithMaxLength("10").EndProperty().
		EndEntity().
		StartInlineCommon("Range").WithDocumentation("r").
		WithProperty("integer", "Low").WithRequired().EndProperty().
		EndEntity().
		StartChoice("Either").WithDocumentation("e").
		WithProperty("bool", "Left").WithOptional().EndProperty().
		EndEntity().
		StartEnumeration("Color").WithDocumentation("c").
		WithEnumerationItem("Red").WithMetaEdID("7").WithDocumentation("red").
		WithEnumerationItem("Blue").
		EndEntity().
		StartDescriptor("Grade").WithDocumentation("g").
		WithProperty("string", "Extra").WithOptional().WithMaxLength("5").EndProperty().
		StartMapType(true).WithDocumentation("map").
		WithEnumerationItem("A").
		WithEnumerationItem("B").
		EndMapType().
		EndEntity().
		StartInterchange("StudentInterchange").WithDocumentation("i").
		WithExtendedDocumentation("ext").WithUseCaseDocumentation("use").
		WithDomainEntityElement("Student").WithMetaEdID("3").
		WithDescriptorElement("Sample.Grade").
		WithDomainEntityIdentityTemplate("School").
		EndEntity().
		StartInterchangeExtension("EdFi.Base").
		WithAssociationElement("Enrollment").
		EndEntity().
		StartDomain("Enrollment").WithDocumentation("d").
		WithDomainItem("domain entity", "Student").
		WithDomainItem("inline common", "Range").
		WithFooterDocumentation("footer").
		EndEntity().
		StartSubdomain("Attendance", "Enrollment").WithDocumentation("a").
		WithDomainItem("association", "StudentSchool").
		WithSubdomainPosition(2).
		EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	require.Zero(t, env.Failures.Len())
	ns := namespace(t, env, "EdFi")

	person := topLevelEntity(t, ns, model.KindDomainEntity, "Person")
	assert.True(t, person.IsAbstract)

	rng := topLevelEntity(t, ns, model.KindCommon, "Range")
	assert.True(t, rng.Inline)

	assert.Len(t, topLevelEntity(t, ns, model.KindChoice, "Either").Properties, 1)

	color := topLevelEntity(t, ns, model.KindEnumeration, "Color")
	require.Len(t, color.EnumerationItems, 2)
	assert.Equal(t, "Red", color.EnumerationItems[0].ShortDescription)
	assert.Equal(t, "7", color.EnumerationItems[0].MetaEdID)
	assert.Equal(t, "red", color.EnumerationItems[0].Documentation)
	assert.Equal(t, "c", color.Documentation)

	grade := topLevelEntity(t, ns, model.KindDescriptor, "Grade")
	require.Len(t, grade.Properties, 1)
	require.NotNil(t, grade.MapType)
	assert.True(t, grade.MapType.IsRequired)
	assert.Equal(t, "map", grade.MapType.Documentation)
	assert.Len(t, grade.MapType.Items, 2)
	assert.Empty(t, grade.EnumerationItems)

	ic, ok := model.Lookup[*model.Interchange](ns.Entities, model.KindInterchange, "StudentInterchange")
	require.True(t, ok)
	assert.Equal(t, "ext", ic.ExtendedDocumentation)
	assert.Equal(t, "use", ic.UseCaseDocumentation)
	require.Len(t, ic.Elements, 2)
	assert.Equal(t, "domainEntity", ic.Elements[0].ReferencedType)
	assert.Equal(t, "3", ic.Elements[0].MetaEdID)
	assert.Equal(t, "EdFi", ic.Elements[0].ReferencedNamespaceName)
	assert.Equal(t, "Grade", ic.Elements[1].Name)
	assert.Equal(t, "Sample", ic.Elements[1].ReferencedNamespaceName)
	require.Len(t, ic.IdentityTemplates, 1)
	assert.Equal(t, "School", ic.IdentityTemplates[0].Name)

	icx, ok := model.Lookup[*model.Interchange](ns.Entities, model.KindInterchangeExtension, "Base")
	require.True(t, ok)
	assert.Equal(t, "EdFi", icx.BaseEntityNamespaceName)
	assert.Len(t, icx.Elements, 1)

	domain, ok := model.Lookup[*model.Domain](ns.Entities, model.KindDomain, "Enrollment")
	require.True(t, ok)
	assert.Equal(t, "footer", domain.FooterDocumentation)
	require.Len(t, domain.Items, 2)
	assert.Equal(t, "inlineCommon", domain.Items[1].ReferencedType)

	sub, ok := model.Lookup[*model.Domain](ns.Entities, model.KindSubdomain, "Attendance")
	require.True(t, ok)
	assert.Equal(t, "Enrollment", sub.ParentDomainName)
	assert.Equal(t, 2, sub.Position)
	assert.Len(t, sub.Items, 1)

	// ограничения свойств тоже материализуются
	assert.Equal(t, 2, ns.Entities.Count(model.KindStringType))
}

func TestNamespaceBlocksRepeat(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartDomainEntity("A").EndEntity().
		EndNamespace().
		BeginNamespace("EdFi", "").
		StartDomainEntity("B").EndEntity().
		StartDomainEntity("A").EndEntity().
		EndNamespace().
		BeginNamespace("EdFi", "Other").
		StartDomainEntity("C").EndEntity().
		EndNamespace().
		String()

	env := build(t, src, false)
	require.Equal(t, 1, env.Registry.Len())
	ns := namespace(t, env, "EdFi")
	assert.Equal(t, 2, ns.Entities.Count(model.KindDomainEntity))
	_, ok := ns.Entities.Get(model.KindDomainEntity, "C")
	assert.False(t, ok, "conflicting block is not built")

	errs := env.Failures.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, "Domain Entity named A is a duplicate declaration of that name.", errs[0].Message)
	assert.Equal(t, NamespaceBuilderName, errs[2].ValidatorName)
	assert.Equal(t, "Namespace named EdFi was previously declared with a different project extension.", errs[2].Message)
}

func TestEntitiesOutsideNamespaceAreIgnored(t *testing.T) {
	src := dsl.NewTextBuilder().
		StartDomainEntity("Loose").
		WithProperty("integer", "Count").WithMaxValue("3").EndProperty().
		EndEntity().
		String()

	env := build(t, src, false)
	assert.Zero(t, env.Registry.Len())
	assert.Zero(t, env.Failures.Len())
}

func TestUnbalancedEventsDoNotPanic(t *testing.T) {
	env := NewEnvironment(nil)
	d := env.Dispatcher(true)
	assert.NotPanics(t, func() {
		d.Exit(dsl.RuleProperty, dsl.Token{})
		d.Exit(dsl.RuleDomainEntity, dsl.Token{})
		d.Exit(dsl.RuleNamespace, dsl.Token{})
		d.Enter(dsl.RulePropertyName, dsl.Token{Text: "X"})
		d.Exit(dsl.RuleSharedInteger, dsl.Token{})
		d.Exit(dsl.RuleMergeDirective, dsl.Token{})
		d.Exit(dsl.RuleEnumerationItem, dsl.Token{})
	})
	assert.Zero(t, env.Registry.Len())
}

func TestFamilyBuildersIgnoreForeignEntities(t *testing.T) {
	src := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartAssociation("A").
		WithProperty("domain entity", "X").EndProperty().
		WithProperty("domain entity", "Y").EndProperty().
		EndEntity().
		StartDomainEntity("D").EndEntity().
		EndNamespace().
		String()

	env := NewEnvironment(nil)
	ls := []dsl.Listener{NewNamespaceBuilder(env.Registry, env.Failures, nil), NewDomainEntityBuilder(env.Deps())}
	require.NoError(t, dsl.ParseString("test.metaed", src, dsl.NewDispatcher(ls...)))

	got := namespace(t, env, "EdFi")
	assert.Equal(t, 1, got.Entities.Len())
	assert.Zero(t, env.Properties.Len())
}

func TestBuildFromFiles(t *testing.T) {
	dir := t.TempDir()
	core := dsl.NewTextBuilder().
		BeginNamespace("EdFi", "").
		StartDomainEntity("Student").
		WithProperty("short", "Age").WithRequired().EndProperty().
		EndEntity().
		EndNamespace().
		String()
	ext := dsl.NewTextBuilder().
		BeginNamespace("Sample", "Sample").
		StartDomainEntityExtension("EdFi.Student").
		WithProperty("string", "Pet").WithOptional().WithMaxLength("20").EndProperty().
		EndEntity().
		EndNamespace().
		String()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.metaed"), []byte(core), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ext"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ext", "sample.metaed"), []byte(ext), 0o644))

	res, err := Build(context.Background(), []string{dir}, Options{SyntaxValidation: true, Concurrency: 2})
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)
	assert.Equal(t, 2, res.Registry.Len())
	assert.False(t, res.Failures.HasErrors())
	assert.Len(t, res.Failures.Warnings(), 1)

	ns := namespace(t, res.Environment, "Sample")
	ext2 := topLevelEntity(t, ns, model.KindDomainEntityExtension, "Student")
	assert.Equal(t, "EdFi", ext2.BaseEntityNamespaceName)
	_, ok := ns.Entities.Get(model.KindStringType, "Sample-Pet")
	assert.True(t, ok)

	_, err = Build(context.Background(), []string{filepath.Join(dir, "missing")}, Options{})
	assert.Error(t, err)
}
